package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotOwner is returned when a requester asks for a job owned by someone else.
var ErrNotOwner = errors.New("job does not belong to requester")

// Service exposes the owner-scoped job operations consumed by the HTTP layer.
// Processing itself is driven by the scheduler, never by the service.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Submit creates a new pending job for the owner and returns it.
func (s *Service) Submit(ctx context.Context, ownerID, audioRef, videoRef string) (*Job, error) {
	j, err := s.store.Create(ctx, ownerID, audioRef, videoRef)
	if err != nil {
		s.logger.Error("failed to create job",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("submit job: %w", err)
	}

	s.logger.Info("job submitted",
		slog.Int64("job_id", j.ID),
		slog.String("owner_id", ownerID),
	)
	return j, nil
}

// GetForOwner retrieves a job by ID, enforcing that the requester owns it.
// Returns ErrJobNotFound for unknown jobs and ErrNotOwner for foreign ones.
func (s *Service) GetForOwner(ctx context.Context, id int64, ownerID string) (*Job, error) {
	j, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return j, nil
}

// ListForOwner returns the requester's jobs, newest first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]*Job, error) {
	return s.store.ListByOwner(ctx, ownerID)
}
