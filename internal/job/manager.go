package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/schemascrape/internal/extract"
	"github.com/jonathan/schemascrape/internal/fetch"
	"github.com/jonathan/schemascrape/internal/sanitize"
	"github.com/jonathan/schemascrape/internal/telemetry"
)

// Extractor turns sanitized content plus a schema into structured JSON.
// *extract.Extractor satisfies this; tests inject fakes.
type Extractor interface {
	Extract(ctx context.Context, schema extract.Schema, content string) (*extract.Result, error)
}

// Manager coordinates the extraction pipeline for individual jobs.
// All collaborators are injected; the manager holds no ambient state.
type Manager struct {
	store     Store
	broker    *telemetry.Broker
	fetcher   fetch.Fetcher
	browser   fetch.Fetcher
	extractor Extractor
	sanOpts   *sanitize.Options
	logger    *zap.Logger
}

// Config wires a Manager's collaborators.
type Config struct {
	Store     Store
	Broker    *telemetry.Broker
	Fetcher   fetch.Fetcher
	// Browser is an optional fallback fetcher for script-rendered pages.
	Browser   fetch.Fetcher
	Extractor Extractor
	Sanitize  *sanitize.Options
	Logger    *zap.Logger
}

// NewManager creates a job manager from cfg.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:     cfg.Store,
		broker:    cfg.Broker,
		fetcher:   cfg.Fetcher,
		browser:   cfg.Browser,
		extractor: cfg.Extractor,
		sanOpts:   cfg.Sanitize,
		logger:    logger,
	}
}

// Submit persists a new pending job and returns its id. Execution is the
// caller's call: ad-hoc submissions run immediately, the bulk dispatcher
// queues.
func (m *Manager) Submit(ctx context.Context, url string, schema extract.Schema) (uuid.UUID, error) {
	if err := schema.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("invalid schema: %w", err)
	}

	j := &Job{
		ID:        uuid.New(),
		URL:       url,
		Schema:    schema,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.CreateJob(ctx, j); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.logger.Info("job submitted",
		zap.String("job_id", j.ID.String()),
		zap.String("url", url))
	return j.ID, nil
}

// Run executes the pipeline for jobID. Pipeline failures do not escape:
// they become a terminal failed status plus an error log entry, and Run
// returns nil. Run returns an error only when the job cannot be loaded
// or its state is unknowable. Running an already-terminal job is a
// warn-logged no-op.
func (m *Manager) Run(ctx context.Context, jobID uuid.UUID) error {
	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if j == nil {
		return ErrNotFound
	}

	if j.Status.Terminal() {
		m.append(ctx, jobID, telemetry.LevelWarn,
			fmt.Sprintf("run requested but job is already %s; ignoring", j.Status), nil)
		return nil
	}

	startedAt := time.Now().UTC()
	if err := m.store.UpdateJobStatus(ctx, jobID, StatusRunning, startedAt); err != nil {
		if errors.Is(err, ErrTerminal) {
			m.append(ctx, jobID, telemetry.LevelWarn, "run requested but job already finished; ignoring", nil)
			return nil
		}
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	m.append(ctx, jobID, telemetry.LevelInfo, "engaging target", map[string]any{"url": j.URL})

	result, runErr := m.pipeline(ctx, j)
	if runErr != nil {
		m.fail(ctx, jobID, runErr)
		return nil
	}

	// The result insert lands before the status flip so a completed job
	// always has its result on record.
	if err := m.store.WriteExtractionResult(ctx, &Result{
		JobID:      jobID,
		Content:    result.Content,
		Engine:     result.Engine,
		TokensUsed: result.TokensUsed,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		m.fail(ctx, jobID, fmt.Errorf("persistence failure: %w", err))
		return nil
	}
	if err := m.store.UpdateJobStatus(ctx, jobID, StatusCompleted, startedAt); err != nil {
		if errors.Is(err, ErrTerminal) {
			return nil
		}
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	m.append(ctx, jobID, telemetry.LevelSuccess, "extraction complete", map[string]any{
		"engine":      result.Engine,
		"tokens_used": result.TokensUsed,
	})
	m.logger.Info("job completed", zap.String("job_id", jobID.String()))
	return nil
}

// JobSucceeded reports whether jobID ended in completed. The bulk
// dispatcher uses this to fold job outcomes into its counters, since
// Run keeps pipeline failures inside the job boundary.
func (m *Manager) JobSucceeded(ctx context.Context, jobID uuid.UUID) (bool, error) {
	j, err := m.store.GetJob(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to load job: %w", err)
	}
	if j == nil {
		return false, ErrNotFound
	}
	return j.Status == StatusCompleted, nil
}

// pipeline runs fetch → sanitize → extract and reports stage boundaries
// to the telemetry channel.
func (m *Manager) pipeline(ctx context.Context, j *Job) (*extract.Result, error) {
	page, err := m.fetchPage(ctx, j)
	if err != nil {
		return nil, err
	}
	m.append(ctx, j.ID, telemetry.LevelSuccess, "target fetched", map[string]any{"bytes": len(page)})

	cleaned := sanitize.Clean(page, m.sanOpts)
	if cleaned == "" {
		m.append(ctx, j.ID, telemetry.LevelWarn, "page yielded no visible text after sanitization", nil)
	} else {
		m.append(ctx, j.ID, telemetry.LevelSuccess, "content sanitized", map[string]any{"chars": len(cleaned)})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := m.extractor.Extract(ctx, j.Schema, cleaned)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		m.append(ctx, j.ID, telemetry.LevelWarn, "schema mismatch in model output: "+w, nil)
	}
	return result, nil
}

// fetchPage fetches the raw page, falling back to the browser fetcher
// when the plain response looks like an unrendered SPA shell.
func (m *Manager) fetchPage(ctx context.Context, j *Job) (string, error) {
	result, err := m.fetcher.Fetch(ctx, j.URL)
	if err != nil {
		return "", err
	}

	if m.browser != nil && fetch.ShouldUseBrowser(result.Body) {
		m.append(ctx, j.ID, telemetry.LevelWarn, "thin response, re-fetching with headless browser", nil)
		rendered, berr := m.browser.Fetch(ctx, j.URL)
		if berr == nil {
			return rendered.Body, nil
		}
		m.append(ctx, j.ID, telemetry.LevelWarn, "browser fetch failed, using plain response", nil)
	}
	return result.Body, nil
}

// fail records the terminal failed state. The writes run on a context
// detached from the caller's cancellation: a job stuck in running
// forever is worse than one marked failed.
func (m *Manager) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	msg := failureMessage(ctx, cause)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	m.append(persistCtx, jobID, telemetry.LevelError, msg, nil)
	if err := m.store.UpdateJobStatus(persistCtx, jobID, StatusFailed, time.Now().UTC()); err != nil && !errors.Is(err, ErrTerminal) {
		m.logger.Error("failed to record job failure",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}
	m.logger.Warn("job failed",
		zap.String("job_id", jobID.String()),
		zap.String("cause", msg))
}

// failureMessage maps a pipeline error to the human-readable cause
// recorded on the job's error log entry. Caller cancellation takes
// precedence: a fetch aborted because the caller gave up is "cancelled",
// not "timed out".
func failureMessage(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "cancelled: " + err.Error()
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		if fetchErr.Cause == fetch.CauseTimeout {
			return "fetch timed out: " + fetchErr.Error()
		}
		return "target unreachable: " + fetchErr.Error()
	}

	var inferenceErr *extract.InferenceError
	if errors.As(err, &inferenceErr) {
		return "inference failure: " + inferenceErr.Error()
	}

	var malformedErr *extract.MalformedOutputError
	if errors.As(err, &malformedErr) {
		return "model returned unusable output: " + malformedErr.Error()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled: " + err.Error()
	}

	return err.Error()
}

// append emits a telemetry entry, logging (but not propagating) append
// failures so telemetry trouble never kills a pipeline.
func (m *Manager) append(ctx context.Context, jobID uuid.UUID, level telemetry.Level, msg string, metadata map[string]any) {
	if err := m.broker.Append(ctx, jobID, level, msg, metadata); err != nil {
		m.logger.Error("failed to append log entry",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}
}
