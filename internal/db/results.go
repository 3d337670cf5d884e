package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/schemascrape/internal/job"
)

// WriteExtractionResult persists the structured output for a completed
// job. The job id is the primary key, so a result can exist at most once
// per job; ON CONFLICT DO NOTHING keeps a duplicate write from failing
// without overwriting the original.
func (db *DB) WriteExtractionResult(ctx context.Context, r *job.Result) error {
	contentJSON, err := json.Marshal(r.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal result content: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO extraction_results (job_id, content, engine, tokens_used, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (job_id) DO NOTHING`,
		r.JobID, contentJSON, r.Engine, r.TokensUsed, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write extraction result: %w", err)
	}
	return nil
}

// GetExtractionResult retrieves the result for a job, or nil when the
// job has none.
func (db *DB) GetExtractionResult(ctx context.Context, jobID uuid.UUID) (*job.Result, error) {
	var r job.Result
	var contentJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT job_id, content, engine, tokens_used, created_at
		 FROM extraction_results WHERE job_id = $1`,
		jobID,
	).Scan(&r.JobID, &contentJSON, &r.Engine, &r.TokensUsed, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get extraction result: %w", err)
	}

	if err := json.Unmarshal(contentJSON, &r.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result content: %w", err)
	}
	return &r, nil
}
