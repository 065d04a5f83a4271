package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// schema is applied on startup. Kept idempotent so multiple restarts are safe.
const schema = `
CREATE TABLE IF NOT EXISTS composition_jobs (
	id            BIGSERIAL PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	audio_ref     TEXT NOT NULL,
	video_ref     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	progress      INT NOT NULL DEFAULT 0,
	output_url    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS composition_jobs_status_idx ON composition_jobs (status, created_at, id);
CREATE INDEX IF NOT EXISTS composition_jobs_owner_idx ON composition_jobs (owner_id, created_at DESC, id DESC);
`

const jobColumns = "id, owner_id, audio_ref, video_ref, status, progress, output_url, error_message, created_at, updated_at"

// PostgresStore is a Postgres-backed implementation of Store using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the jobs table and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Create persists a new pending job and returns it with its assigned ID.
func (s *PostgresStore) Create(ctx context.Context, ownerID, audioRef, videoRef string) (*Job, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO composition_jobs (owner_id, audio_ref, video_ref, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING `+jobColumns,
		ownerID, audioRef, videoRef,
	)
	j, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// FindByID retrieves a job by its ID.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return j, nil
}

// OldestPending returns the pending job with the earliest creation time.
func (s *PostgresStore) OldestPending(ctx context.Context) (*Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs
		 WHERE status = 'pending'
		 ORDER BY created_at, id
		 LIMIT 1`)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPendingJobs
	}
	if err != nil {
		return nil, fmt.Errorf("oldest pending job: %w", err)
	}
	return j, nil
}

// Update applies the field mask inside a transaction so the read-validate-
// write cycle is atomic with respect to other writers.
func (s *PostgresStore) Update(ctx context.Context, id int64, upd Update) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs WHERE id = $1 FOR UPDATE`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("lock job: %w", err)
	}

	if err := j.Apply(upd); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE composition_jobs
		 SET status = $2, progress = $3, output_url = $4, error_message = $5, updated_at = now()
		 WHERE id = $1`,
		j.ID, string(j.Status), j.Progress, j.OutputURL, j.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's jobs, newest first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	result := make([]*Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return result, nil
}

// scanJob reads one job from a pgx row.
func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var status string
	err := row.Scan(
		&j.ID,
		&j.OwnerID,
		&j.AudioRef,
		&j.VideoRef,
		&status,
		&j.Progress,
		&j.OutputURL,
		&j.ErrorMessage,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = Status(status)
	return &j, nil
}
