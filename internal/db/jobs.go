package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/schemascrape/internal/job"
)

// Compile-time check that DB satisfies the job store contract.
var _ job.Store = (*DB)(nil)

// CreateJob persists a new job record.
func (db *DB) CreateJob(ctx context.Context, j *job.Job) error {
	schemaJSON, err := json.Marshal(j.Schema)
	if err != nil {
		return fmt.Errorf("failed to marshal target schema: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, url, target_schema, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		j.ID, j.URL, schemaJSON, j.Status, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id, or nil when it does not exist.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	var j job.Job
	var schemaJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, url, target_schema, status, created_at, last_run_at
		 FROM jobs WHERE id = $1`,
		id,
	).Scan(&j.ID, &j.URL, &schemaJSON, &j.Status, &j.CreatedAt, &j.LastRunAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if err := json.Unmarshal(schemaJSON, &j.Schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal target schema: %w", err)
	}
	return &j, nil
}

// UpdateJobStatus moves a job to status and stamps last_run_at. The
// WHERE clause refuses to overwrite a terminal status, so a second
// terminal write reports job.ErrTerminal instead of double-writing.
func (db *DB) UpdateJobStatus(ctx context.Context, id uuid.UUID, status job.Status, lastRunAt time.Time) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, last_run_at = $2
		 WHERE id = $3 AND status NOT IN ($4, $5)`,
		status, lastRunAt, id, job.StatusCompleted, job.StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := db.GetJob(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return job.ErrNotFound
		}
		return job.ErrTerminal
	}
	return nil
}
