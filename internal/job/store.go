package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// ErrNoPendingJobs is returned by OldestPending when the queue is drained.
var ErrNoPendingJobs = errors.New("no pending jobs")

// Store defines the interface for job persistence.
// It acts as a port in the hexagonal architecture pattern.
type Store interface {
	// Create persists a new job in pending state with progress 0 and
	// returns it with its assigned ID.
	Create(ctx context.Context, ownerID, audioRef, videoRef string) (*Job, error)

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id int64) (*Job, error)

	// OldestPending returns the pending job with the earliest creation
	// time, ties broken by ID. Returns ErrNoPendingJobs when there is none.
	OldestPending(ctx context.Context) (*Job, error)

	// Update applies the field mask to the job, enforcing the state
	// machine. Returns ErrJobNotFound if the job does not exist and
	// ErrInvalidTransition if the update violates the state machine.
	Update(ctx context.Context, id int64, upd Update) error

	// ListByOwner returns all jobs belonging to the owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*Job, error)
}
