package batch

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("unknown batch")

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Failure records one document that failed inside an otherwise
// continuing batch.
type Failure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// Progress is the per-batch bookkeeping record. Snapshots returned by a
// Store are copies; callers never share mutable state.
type Progress struct {
	BatchID         string    `json:"batch_id"`
	Total           int       `json:"total"`
	Processed       int       `json:"processed"`
	CurrentTasks    int       `json:"current_tasks"`
	PercentComplete float64   `json:"percent_complete"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	Failures        []Failure `json:"failures,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store tracks batch progress. Every method that combines a read with a
// write executes as a single mutually exclusive step, so concurrent
// document completions never lose updates.
type Store interface {
	Create(ctx context.Context, p *Progress) error

	// Get returns a snapshot of the batch, or ErrNotFound.
	Get(ctx context.Context, batchID string) (*Progress, error)

	// TaskStarted increments the in-flight counter.
	TaskStarted(ctx context.Context, batchID string) error

	// TaskFinished increments processed, decrements the in-flight counter,
	// recomputes percent_complete, optionally records a document failure,
	// and returns the resulting snapshot.
	TaskFinished(ctx context.Context, batchID string, failure *Failure) (*Progress, error)

	// Finalize moves the batch to a terminal status. A completed batch is
	// pinned to 100 percent; a failed one keeps its last percentage and
	// records the error message.
	Finalize(ctx context.Context, batchID string, status Status, errMsg string) error
}
