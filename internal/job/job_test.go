package job

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"pending to failed", StatusPending, StatusFailed, false},
		{"completed to processing", StatusCompleted, StatusProcessing, false},
		{"failed to pending", StatusFailed, StatusPending, false},
		{"unknown status", Status("bogus"), StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestApply_ValidTransition(t *testing.T) {
	j := &Job{ID: 1, Status: StatusPending}

	if err := j.Apply(Update{Status: statusPtr(StatusProcessing), Progress: intPtr(10)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusProcessing {
		t.Errorf("expected status processing, got %s", j.Status)
	}
	if j.Progress != 10 {
		t.Errorf("expected progress 10, got %d", j.Progress)
	}
	if j.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestApply_InvalidTransition(t *testing.T) {
	j := &Job{ID: 1, Status: StatusPending}

	err := j.Apply(Update{Status: statusPtr(StatusCompleted)})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if j.Status != StatusPending {
		t.Errorf("job mutated despite rejected transition: %s", j.Status)
	}
}

func TestApply_TerminalJobsAreImmutable(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			j := &Job{ID: 1, Status: status, Progress: 100}

			err := j.Apply(Update{Progress: intPtr(50)})
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if j.Progress != 100 {
				t.Errorf("terminal job mutated: progress %d", j.Progress)
			}
		})
	}
}

func TestApply_SameStatusIsNoOp(t *testing.T) {
	j := &Job{ID: 1, Status: StatusProcessing, Progress: 10}

	if err := j.Apply(Update{Status: statusPtr(StatusProcessing), Progress: intPtr(30)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Progress != 30 {
		t.Errorf("expected progress 30, got %d", j.Progress)
	}
}

func TestApply_ClampsProgress(t *testing.T) {
	j := &Job{ID: 1, Status: StatusProcessing}

	if err := j.Apply(Update{Progress: intPtr(150)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", j.Progress)
	}

	if err := j.Apply(Update{Progress: intPtr(-5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress clamped to 0, got %d", j.Progress)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		j := &Job{Status: tt.status}
		if got := j.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClone(t *testing.T) {
	j := &Job{ID: 7, OwnerID: "user-1", Status: StatusPending}
	c := j.Clone()

	c.Status = StatusProcessing
	c.OwnerID = "someone-else"

	if j.Status != StatusPending || j.OwnerID != "user-1" {
		t.Error("mutating the clone changed the original")
	}
}

func statusPtr(s Status) *Status { return &s }
func intPtr(i int) *int          { return &i }
func strPtr(s string) *string    { return &s }
