// Package scheduler drives the composition job pipeline. A single periodic
// poller drains pending jobs from the store in FIFO order and runs each one
// through fetch, probe, plan, transcode and publish, updating the job record
// at every milestone. At most one job is in flight per process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loopmux/loopmux-api/internal/job"
	"github.com/loopmux/loopmux-api/internal/media"
)

// Progress checkpoints published to the job record.
const (
	progressClaimed    = 10
	progressFetched    = 30
	progressTranscoded = 90
)

// DefaultInterval is the default polling interval.
const DefaultInterval = 5 * time.Second

// Fetcher materializes an input media reference into a temporary local file.
type Fetcher interface {
	Fetch(ctx context.Context, name, ref string) (string, error)
}

// Prober reports the duration in seconds of a local media file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Transcoder produces the final MP4 from the two inputs and the plan.
type Transcoder interface {
	Compose(ctx context.Context, videoPath, audioPath string, loopCount int, targetSec float64) (string, error)
}

// ArtifactStore is the slice of the storage port the scheduler needs:
// reading back the produced file, publishing it, and deleting scratch files.
type ArtifactStore interface {
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)
	CleanupTemp(ctx context.Context, paths []string) error
	Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Scheduler polls the job store and processes one job at a time.
// The single-flight guard is owned by the scheduler itself so the invariant
// is visible and testable in isolation.
type Scheduler struct {
	store      job.Store
	fetcher    Fetcher
	prober     Prober
	transcoder Transcoder
	artifacts  ArtifactStore
	interval   time.Duration
	logger     *slog.Logger

	mu   sync.Mutex
	busy bool
}

// New creates a new Scheduler.
func New(store job.Store, fetcher Fetcher, prober Prober, transcoder Transcoder, artifacts ArtifactStore, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		store:      store,
		fetcher:    fetcher,
		prober:     prober,
		transcoder: transcoder,
		artifacts:  artifacts,
		interval:   DefaultInterval,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run polls the store until the context is cancelled. A failing job never
// stops the loop; store errors skip the tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		slog.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick attempts one scheduling pass: if no job is in flight, it claims the
// oldest pending job and processes it to a terminal state. Returns false if
// a composition was already in flight and the tick was skipped.
func (s *Scheduler) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return false
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	j, err := s.store.OldestPending(ctx)
	if errors.Is(err, job.ErrNoPendingJobs) {
		return true
	}
	if err != nil {
		s.logger.Warn("job store unavailable, skipping tick",
			slog.String("error", err.Error()),
		)
		return true
	}

	s.process(ctx, j)
	return true
}

// process drives one claimed job to a terminal state. Every temp path
// acquired along the way is deleted on exit regardless of outcome.
func (s *Scheduler) process(ctx context.Context, j *job.Job) {
	logger := s.logger.With(slog.Int64("job_id", j.ID))
	logger.Info("processing job")

	if err := s.store.Update(ctx, j.ID, job.Update{
		Status:   ptr(job.StatusProcessing),
		Progress: ptr(progressClaimed),
	}); err != nil {
		logger.Error("failed to claim job",
			slog.String("error", err.Error()),
		)
		return
	}

	var temps []string
	defer func() {
		if len(temps) == 0 {
			return
		}
		// Cleanup must run even when ctx was cancelled mid-job.
		if err := s.artifacts.CleanupTemp(context.WithoutCancel(ctx), temps); err != nil {
			logger.Warn("temp cleanup failed",
				slog.String("error", err.Error()),
			)
		}
	}()

	outputURL, err := s.compose(ctx, j, &temps, logger)
	if err != nil {
		logger.Error("job failed",
			slog.String("error", err.Error()),
		)
		s.finalize(ctx, j.ID, job.Update{
			Status:       ptr(job.StatusFailed),
			Progress:     ptr(0),
			ErrorMessage: ptr(failureMessage(err)),
		}, logger)
		return
	}

	s.finalize(ctx, j.ID, job.Update{
		Status:    ptr(job.StatusCompleted),
		Progress:  ptr(100),
		OutputURL: ptr(outputURL),
	}, logger)
	logger.Info("job completed",
		slog.String("output_url", outputURL),
	)
}

// compose runs the pipeline steps for one job and returns the artifact URL.
// Fetched and produced files are appended to temps for the caller's cleanup.
func (s *Scheduler) compose(ctx context.Context, j *job.Job, temps *[]string, logger *slog.Logger) (string, error) {
	audioPath, err := s.fetcher.Fetch(ctx, fmt.Sprintf("audio-%d", j.ID), j.AudioRef)
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	*temps = append(*temps, audioPath)

	videoPath, err := s.fetcher.Fetch(ctx, fmt.Sprintf("video-%d", j.ID), j.VideoRef)
	if err != nil {
		return "", fmt.Errorf("fetch video: %w", err)
	}
	*temps = append(*temps, videoPath)

	if err := s.checkpoint(ctx, j.ID, progressFetched); err != nil {
		return "", err
	}

	audioSec, err := s.prober.Duration(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("probe audio: %w", err)
	}
	videoSec, err := s.prober.Duration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe video: %w", err)
	}

	plan, err := media.NewPlan(audioSec, videoSec)
	if err != nil {
		return "", err
	}

	logger.Info("composition planned",
		slog.Int("loop_count", plan.LoopCount),
		slog.Float64("target_duration_sec", plan.TargetDuration),
	)

	outputPath, err := s.transcoder.Compose(ctx, videoPath, audioPath, plan.LoopCount, plan.TargetDuration)
	if err != nil {
		return "", fmt.Errorf("transcode: %w", err)
	}
	*temps = append(*temps, outputPath)

	if err := s.checkpoint(ctx, j.ID, progressTranscoded); err != nil {
		return "", err
	}

	f, err := s.artifacts.LoadTemp(ctx, outputPath)
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := fmt.Sprintf("videos/%d-%s.mp4", j.ID, uuid.NewString())
	url, err := s.artifacts.Put(ctx, key, f, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}

	return url, nil
}

// checkpoint publishes a progress milestone on the job record.
func (s *Scheduler) checkpoint(ctx context.Context, id int64, progress int) error {
	if err := s.store.Update(ctx, id, job.Update{Progress: ptr(progress)}); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// finalize writes the terminal state. Failure to record it is logged; the
// scheduler loop itself must survive.
func (s *Scheduler) finalize(ctx context.Context, id int64, upd job.Update, logger *slog.Logger) {
	if err := s.store.Update(ctx, id, upd); err != nil {
		logger.Error("failed to finalize job",
			slog.String("error", err.Error()),
		)
	}
}

// failureMessage converts a pipeline error to the human-readable description
// stored on the job. Transcode failures keep the engine's diagnostic text but
// drop the full argument list. Input rejections carry their own explanation
// and surface as-is. Everything else, including os-level errors from scratch
// files, collapses to a fixed message so file system paths stay out of the
// record.
func failureMessage(err error) string {
	var te *media.TranscodeError
	if errors.As(err, &te) && te.Stderr != "" {
		return "transcode failed: " + strings.TrimSpace(te.Stderr)
	}
	switch {
	case errors.Is(err, media.ErrUnsupportedReference),
		errors.Is(err, media.ErrDecode),
		errors.Is(err, media.ErrInvalidMedia):
		return err.Error()
	case errors.Is(err, media.ErrTranscodeTimeout):
		return media.ErrTranscodeTimeout.Error()
	case errors.Is(err, media.ErrProbe):
		return "could not read media duration, input may be corrupt or unsupported"
	}
	return "internal error while processing the job"
}

func ptr[T any](v T) *T {
	return &v
}
