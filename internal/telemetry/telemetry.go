// Package telemetry appends leveled per-job log entries and fans them
// out to live subscribers. It is a fan-out, not a durable queue: entries
// appended before a subscription are only visible through the store.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Level classifies a log entry.
type Level string

// Log levels, in the order a job's lifecycle emits them.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Entry is one observation emitted during a job's execution.
// Entries are append-only and never mutated after creation.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	JobID     uuid.UUID      `json:"job_id"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// LogStore persists log entries. *db.DB satisfies this.
type LogStore interface {
	AppendLog(ctx context.Context, entry *Entry) error
	ListLogs(ctx context.Context, jobID uuid.UUID) ([]Entry, error)
}
