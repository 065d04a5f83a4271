package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_Create(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	j1, err := store.Create(ctx, "user-1", "data:audio", "data:video")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j2, err := store.Create(ctx, "user-1", "data:audio", "data:video")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if j1.ID >= j2.ID {
		t.Errorf("expected monotonically increasing IDs, got %d then %d", j1.ID, j2.ID)
	}
	if j1.Status != StatusPending {
		t.Errorf("expected new job pending, got %s", j1.Status)
	}
	if j1.Progress != 0 {
		t.Errorf("expected new job progress 0, got %d", j1.Progress)
	}
	if j1.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestMemoryStore_FindByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, "user-1", "a", "v")

	found, err := store.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != created.ID || found.OwnerID != "user-1" {
		t.Errorf("found wrong job: %+v", found)
	}

	// Returned jobs are clones, mutations must not leak back.
	found.Status = StatusCompleted
	again, _ := store.FindByID(ctx, created.ID)
	if again.Status != StatusPending {
		t.Error("mutating a returned job changed the stored copy")
	}

	if _, err := store.FindByID(ctx, 9999); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryStore_OldestPending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.OldestPending(ctx); !errors.Is(err, ErrNoPendingJobs) {
		t.Fatalf("expected ErrNoPendingJobs on empty store, got %v", err)
	}

	first, _ := store.Create(ctx, "user-1", "a", "v")
	second, _ := store.Create(ctx, "user-2", "a", "v")

	got, err := store.OldestPending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("expected oldest pending job %d, got %d", first.ID, got.ID)
	}

	// Claiming the first job moves the cursor to the next one.
	if err := store.Update(ctx, first.ID, Update{Status: statusPtr(StatusProcessing)}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	got, err = store.OldestPending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected next pending job %d, got %d", second.ID, got.ID)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, "user-1", "a", "v")

	err := store.Update(ctx, created.ID, Update{
		Status:   statusPtr(StatusProcessing),
		Progress: intPtr(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.FindByID(ctx, created.ID)
	if got.Status != StatusProcessing || got.Progress != 10 {
		t.Errorf("update not applied: %+v", got)
	}

	// Finish the job, then confirm terminal immutability.
	err = store.Update(ctx, created.ID, Update{
		Status:    statusPtr(StatusCompleted),
		Progress:  intPtr(100),
		OutputURL: strPtr("https://example.com/out.mp4"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = store.Update(ctx, created.ID, Update{Progress: intPtr(0)})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on terminal job, got %v", err)
	}

	if err := store.Update(ctx, 9999, Update{}); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryStore_ListByOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a1, _ := store.Create(ctx, "alice", "a", "v")
	store.Create(ctx, "bob", "a", "v")
	a2, _ := store.Create(ctx, "alice", "a", "v")

	jobs, err := store.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs for alice, got %d", len(jobs))
	}
	// Newest first.
	if jobs[0].ID != a2.ID || jobs[1].ID != a1.ID {
		t.Errorf("expected order [%d %d], got [%d %d]", a2.ID, a1.ID, jobs[0].ID, jobs[1].ID)
	}

	empty, err := store.ListByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty list, got %d jobs", len(empty))
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			owner := fmt.Sprintf("user-%d", n%4)
			j, err := store.Create(ctx, owner, "a", "v")
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if _, err := store.FindByID(ctx, j.ID); err != nil {
				t.Errorf("find: %v", err)
			}
			if _, err := store.ListByOwner(ctx, owner); err != nil {
				t.Errorf("list: %v", err)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for i := int64(1); i <= 20; i++ {
		j, err := store.FindByID(ctx, i)
		if err != nil {
			t.Fatalf("job %d missing: %v", i, err)
		}
		if seen[j.ID] {
			t.Errorf("duplicate job ID %d", j.ID)
		}
		seen[j.ID] = true
	}
}
