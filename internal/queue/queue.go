// internal/queue/queue.go
package queue

import (
	"context"
	"errors"
	"time"
)

// State is the single authoritative lifecycle field of a job. Transitions
// run PENDING/DELAYED -> RUNNING -> one of the terminal states; a terminal
// state, once set, is never overwritten.
type State string

const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StateDelayed   State = "DELAYED"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateAborted   State = "ABORTED"
	StateUnknown   State = "UNKNOWN"
)

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateAborted
}

// Payload is one spectrogram captured by value at submission time, so later
// dataset mutation or deletion does not touch an in-flight job.
type Payload struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type Job struct {
	ID           string    `json:"id"`
	UserID       uint      `json:"user_id"`
	ModelID      string    `json:"model_id"`
	Spectrograms []Payload `json:"spectrograms"`

	State State `json:"state"`
	// Reason holds the failure detail for FAILED jobs and the abort
	// reason for ABORTED ones.
	Reason string `json:"reason,omitempty"`
	Result []byte `json:"result,omitempty"`
	// ResultObject is the object-storage key of the stored result blob.
	ResultObject string `json:"result_object,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ReadyAt   time.Time `json:"ready_at,omitempty"`
}

var ErrJobNotFound = errors.New("job not found")

// Store is the queue backend. The Redis implementation is the production
// one; the memory implementation backs tests.
type Store interface {
	// Enqueue assigns the job an id, records ownership for job.UserID and
	// queues it PENDING, or DELAYED when delay > 0.
	Enqueue(ctx context.Context, job *Job, delay time.Duration) error

	// CreateAborted records a job that is terminal at birth (submission
	// rejected before enqueue), still owned and pollable by its user.
	CreateAborted(ctx context.Context, job *Job, reason string) error

	Get(ctx context.Context, id string) (*Job, error)

	// Dequeue promotes due delayed jobs, then claims the oldest pending
	// job and marks it RUNNING. Returns (nil, nil) when nothing is due.
	// A claimed job found already aborted is dropped and the next one is
	// tried.
	Dequeue(ctx context.Context) (*Job, error)

	// Complete and Fail finish a running job. Both are no-ops when the
	// job already reached a terminal state, so a stale worker can never
	// overwrite an abort.
	Complete(ctx context.Context, id string, result []byte, resultObject string) error
	Fail(ctx context.Context, id string, reason string) error

	// Abort marks a non-terminal job ABORTED and returns the resulting
	// state. On an already-terminal job it returns that state unchanged
	// (idempotent cancellation).
	Abort(ctx context.Context, id string, reason string) (State, error)

	// IsOwned reports whether the job id belongs to the user. Every
	// status/abort read goes through this so job state can never leak
	// across users.
	IsOwned(ctx context.Context, userID uint, jobID string) (bool, error)
}
