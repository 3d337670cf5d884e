package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/schemascrape/internal/telemetry"
)

// Compile-time check that DB satisfies the telemetry log store contract.
var _ telemetry.LogStore = (*DB)(nil)

// AppendLog persists one log entry. Entries are append-only.
func (db *DB) AppendLog(ctx context.Context, entry *telemetry.Entry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal log metadata: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_logs (id, job_id, level, message, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.JobID, entry.Level, entry.Message, metadataJSON, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// ListLogs retrieves all log entries for a job in emission order.
func (db *DB) ListLogs(ctx context.Context, jobID uuid.UUID) ([]telemetry.Entry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, level, message, metadata, created_at
		 FROM job_logs WHERE job_id = $1 ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var entries []telemetry.Entry
	for rows.Next() {
		var e telemetry.Entry
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.JobID, &e.Level, &e.Message, &metadataJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if metadataJSON != nil {
			_ = json.Unmarshal(metadataJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return entries, nil
}
