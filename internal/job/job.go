// Package job owns the lifecycle of a single extraction job: the
// pending → running → completed|failed state machine and the
// fetch → sanitize → extract → persist pipeline behind it.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/schemascrape/internal/extract"
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses. Transitions are one-directional; a terminal job is never
// re-run, the operator resubmits instead.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one attempt to extract structured data from one URL under one
// schema.
type Job struct {
	ID        uuid.UUID      `json:"id"`
	URL       string         `json:"url"`
	Schema    extract.Schema `json:"target_schema"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
}

// Result is the persisted structured output of a completed job.
type Result struct {
	JobID      uuid.UUID      `json:"job_id"`
	Content    map[string]any `json:"content"`
	Engine     string         `json:"engine"`
	TokensUsed int            `json:"tokens_used"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ErrNotFound is returned when a job id resolves to nothing.
var ErrNotFound = errors.New("job not found")

// ErrTerminal is returned by Store.UpdateJobStatus when the job already
// reached a terminal status; it guarantees at most one terminal
// transition per job even under concurrent Run invocations.
var ErrTerminal = errors.New("job already in terminal status")

// Store is the persistence collaborator for jobs and their results.
// All writes are single-row upserts or appends; *db.DB satisfies this.
type Store interface {
	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	// UpdateJobStatus moves a job to status. Terminal transitions on an
	// already-terminal job must return ErrTerminal.
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status Status, lastRunAt time.Time) error
	// WriteExtractionResult persists the result for a completed job.
	// At most one result ever exists per job.
	WriteExtractionResult(ctx context.Context, r *Result) error
	GetExtractionResult(ctx context.Context, jobID uuid.UUID) (*Result, error)
}
