package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/schemascrape/internal/batch"
	"github.com/jonathan/schemascrape/internal/extract"
	"github.com/jonathan/schemascrape/internal/job"
)

var validate = validator.New()

// SubmitJobRequest is the request body for POST /jobs.
type SubmitJobRequest struct {
	URL          string         `json:"url" validate:"required,url"`
	TargetSchema extract.Schema `json:"target_schema" validate:"required"`
}

// SubmitJobResponse is the response for POST /jobs.
type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobResponse is the response for GET /jobs/{id}.
type JobResponse struct {
	JobID     string         `json:"job_id"`
	URL       string         `json:"url"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"created_at"`
	LastRunAt string         `json:"last_run_at,omitempty"`
	Result    *ResultPayload `json:"result,omitempty"`
}

// ResultPayload carries a completed job's extraction result.
type ResultPayload struct {
	Content    map[string]any `json:"content"`
	Engine     string         `json:"engine"`
	TokensUsed int            `json:"tokens_used"`
}

// BatchRequest is the request body for POST /batches.
type BatchRequest struct {
	URLs         []string       `json:"urls" validate:"required,min=1"`
	TargetSchema extract.Schema `json:"target_schema" validate:"required"`
}

// BatchResponse is the response for POST /batches.
type BatchResponse struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	JobIDs    []string `json:"job_ids"`
}

// handleSubmitJob persists a new job and starts it in the background.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}
	if err := req.TargetSchema.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := s.manager.Submit(r.Context(), req.URL, req.TargetSchema)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Ad-hoc submissions start immediately; the request does not wait.
	go func() {
		if err := s.manager.Run(context.Background(), jobID); err != nil {
			s.logger.Error("background job run failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err))
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, SubmitJobResponse{
		JobID:  jobID.String(),
		Status: string(job.StatusPending),
	})
}

// handleGetJob returns a job's status plus its result once completed.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	j, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if j == nil {
		s.errorResponse(w, http.StatusNotFound, "job not found")
		return
	}

	resp := JobResponse{
		JobID:     j.ID.String(),
		URL:       j.URL,
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt.Format(timeFormat),
	}
	if j.LastRunAt != nil {
		resp.LastRunAt = j.LastRunAt.Format(timeFormat)
	}

	if j.Status == job.StatusCompleted {
		result, err := s.store.GetExtractionResult(r.Context(), jobID)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		if result != nil {
			resp.Result = &ResultPayload{
				Content:    result.Content,
				Engine:     result.Engine,
				TokensUsed: result.TokensUsed,
			}
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListLogs backfills a job's persisted log entries in emission order.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	entries, err := s.broker.Backfill(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleRunBatch dispatches a batch and responds with the final counts.
// The call is synchronous; per-job detail streams through the log
// endpoints while it runs.
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}
	if err := req.TargetSchema.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := s.dispatcher.Dispatch(r.Context(), req.URLs, req.TargetSchema)
	if err != nil {
		if errors.Is(err, batch.ErrEmptyBatch) {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := run.Snapshot()
	ids := run.JobIDs()
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	s.jsonResponse(w, http.StatusOK, BatchResponse{
		Total:     snap.Total,
		Processed: snap.Processed,
		Succeeded: snap.Succeeded,
		Failed:    snap.Failed,
		JobIDs:    idStrs,
	})
}

// jobIDFromPath parses the {id} path value, writing a 400 on failure.
func (s *Server) jobIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	jobID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid job id")
		return uuid.Nil, false
	}
	return jobID, true
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
