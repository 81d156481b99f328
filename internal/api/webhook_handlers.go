package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleWorkflowCompletion receives the backend's completion notification
// for a job. The payload is stored opaquely; only a top-level status field
// is pulled out when present.
func (s *Server) handleWorkflowCompletion(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		RespondWithError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}

	status := "completed"
	if len(body) > 0 {
		var probe struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Payload is not valid JSON")
			return
		}
		if probe.Status != "" {
			status = probe.Status
		}
	}

	receipt := s.app.Webhooks.Record(jobID, status, body)
	RespondWithJSON(w, http.StatusOK, receipt)
}

// handleGetCompletionReceipt is the polling-free variant: the dashboard
// asks whether a completion notification has arrived for a job.
func (s *Server) handleGetCompletionReceipt(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	receipt, ok := s.app.Webhooks.Get(jobID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "No completion received for this job")
		return
	}
	RespondWithJSON(w, http.StatusOK, receipt)
}
