package job

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of Store.
// It uses a map with RWMutex for thread-safe access and assigns IDs from a
// monotonic counter. Suitable for development and testing; swap for the
// Postgres store in production.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	jobs   map[int64]*Job
}

// NewMemoryStore creates a new in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[int64]*Job),
	}
}

// Create persists a new pending job and returns a clone of it.
func (s *MemoryStore) Create(_ context.Context, ownerID, audioRef, videoRef string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	j := &Job{
		ID:        s.nextID,
		OwnerID:   ownerID,
		AudioRef:  audioRef,
		VideoRef:  videoRef,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[j.ID] = j

	return j.Clone(), nil
}

// FindByID retrieves a job by its ID.
// Returns a clone to prevent external mutations.
func (s *MemoryStore) FindByID(_ context.Context, id int64) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}

// OldestPending returns the pending job with the earliest creation time.
func (s *MemoryStore) OldestPending(_ context.Context) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *Job
	for _, j := range s.jobs {
		if j.Status != StatusPending {
			continue
		}
		if oldest == nil || olderThan(j, oldest) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, ErrNoPendingJobs
	}
	return oldest.Clone(), nil
}

// Update applies the field mask to the stored job.
func (s *MemoryStore) Update(_ context.Context, id int64, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	return j.Apply(upd)
}

// ListByOwner returns clones of the owner's jobs, newest first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Job, 0)
	for _, j := range s.jobs {
		if j.OwnerID == ownerID {
			result = append(result, j.Clone())
		}
	}
	sort.Slice(result, func(a, b int) bool {
		return olderThan(result[b], result[a])
	})
	return result, nil
}

// olderThan reports whether a was created before b, ties broken by ID.
func olderThan(a, b *Job) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
