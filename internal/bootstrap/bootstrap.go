// Package bootstrap provides dependency initialization for the LoopMux API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loopmux/loopmux-api/internal/config"
	"github.com/loopmux/loopmux-api/internal/job"
	"github.com/loopmux/loopmux-api/internal/media"
	"github.com/loopmux/loopmux-api/internal/scheduler"
	"github.com/loopmux/loopmux-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the application.
type Dependencies struct {
	JobService *job.Service
	Scheduler  *scheduler.Scheduler

	closers []func()
}

// Close releases held resources (database pools etc.).
func (d *Dependencies) Close() {
	for _, c := range d.closers {
		c()
	}
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}

	jobStore, err := initJobStore(ctx, cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	fetcher := media.NewDataURLFetcher(store)
	prober := media.NewFFprobeProber(cfg.FFprobePath)
	transcoder := media.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.TempDir, cfg.TranscodeTimeout)

	deps.JobService = job.NewService(jobStore, logger)
	deps.Scheduler = scheduler.New(
		jobStore,
		fetcher,
		prober,
		transcoder,
		store,
		logger,
		scheduler.WithInterval(cfg.PollInterval),
	)

	return deps, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}

// initJobStore creates the Postgres job store when DATABASE_URL is set,
// falling back to the in-memory store otherwise.
func initJobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *Dependencies) (job.Store, error) {
	if cfg.PostgresEnabled() {
		pgStore, err := job.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create Postgres job store: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("prepare Postgres job store: %w", err)
		}
		deps.closers = append(deps.closers, pgStore.Close)
		logger.Info("Postgres job store configured")
		return pgStore, nil
	}

	logger.Info("in-memory job store configured")
	return job.NewMemoryStore(), nil
}
