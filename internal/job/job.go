// Package job provides the CompositionJob record for merging an audio and a
// video input into a single looped MP4. It defines the job state machine and
// the Store port used by the HTTP layer and the scheduler.
package job

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the current state of a CompositionJob.
type Status string

const (
	// StatusPending indicates the job is waiting to be picked up by the scheduler.
	StatusPending Status = "pending"
	// StatusProcessing indicates the job is being composed.
	StatusProcessing Status = "processing"
	// StatusCompleted indicates the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the job encountered an error during composition.
	StatusFailed Status = "failed"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// completed and failed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one request to loop a video over an audio track and mux
// them into a single MP4.
type Job struct {
	// ID is the store-assigned, monotonically increasing identifier.
	ID int64
	// OwnerID identifies the submitting user. Never changes after creation.
	OwnerID string
	// AudioRef is the inline data: payload carrying the audio bytes.
	AudioRef string
	// VideoRef is the inline data: payload carrying the video bytes.
	VideoRef string
	// Status is the current job state.
	Status Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// OutputURL is the artifact location, set only when Status is completed.
	OutputURL string
	// ErrorMessage describes the failure, set only when Status is failed.
	ErrorMessage string
	// CreatedAt is when the job was created. Used for FIFO ordering.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
}

// Update is a field mask applied to a job by Store.Update. Nil fields are
// left untouched.
type Update struct {
	Status       *Status
	Progress     *int
	OutputURL    *string
	ErrorMessage *string
}

// Apply mutates the job according to the update, enforcing the state
// machine. Terminal jobs reject any further mutation.
func (j *Job) Apply(upd Update) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: job %d is %s", ErrInvalidTransition, j.ID, j.Status)
	}

	if upd.Status != nil && *upd.Status != j.Status {
		if !canTransition(j.Status, *upd.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, *upd.Status)
		}
		j.Status = *upd.Status
	}
	if upd.Progress != nil {
		j.Progress = clampProgress(*upd.Progress)
	}
	if upd.OutputURL != nil {
		j.OutputURL = *upd.OutputURL
	}
	if upd.ErrorMessage != nil {
		j.ErrorMessage = *upd.ErrorMessage
	}
	j.UpdatedAt = time.Now()

	return nil
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	c := *j
	return &c
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
