package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadwatch/internal/models"
)

func (s *Server) handleStartWatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		RespondWithError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	watcher := s.app.Watchers.Watch(jobID)
	RespondWithJSON(w, http.StatusAccepted, watcher.Status())
}

func (s *Server) handleGetWatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	watcher, ok := s.app.Watchers.Get(jobID)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "No watch registered for this job")
		return
	}
	RespondWithJSON(w, http.StatusOK, watcher.Status())
}

func (s *Server) handleStopWatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.app.Watchers.Stop(jobID) {
		RespondWithError(w, http.StatusNotFound, "No watch registered for this job")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Watch stopped."})
}

func (s *Server) handleListWatches(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Watchers.Statuses())
}

func (s *Server) handleRerunStep(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var payload struct {
		StepIndex int `json:"step_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.StepIndex < 0 {
		RespondWithError(w, http.StatusBadRequest, "step_index must not be negative")
		return
	}

	if err := s.app.Backend.RerunStep(r.Context(), jobID, payload.StepIndex); err != nil {
		RespondWithError(w, http.StatusBadGateway, "Backend rejected rerun: "+err.Error())
		return
	}

	// Mark the rerun on the watcher so polling continues until the new
	// output lands. The poll loop owns clearing the marker.
	watcher := s.app.Watchers.Watch(jobID)
	watcher.MarkRerunning(payload.StepIndex)

	RespondWithJSON(w, http.StatusAccepted, watcher.Status())
}

func (s *Server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	transitions, err := s.app.Store.ListTransitions(jobID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load transitions")
		return
	}
	if transitions == nil {
		transitions = []models.StatusTransition{}
	}
	RespondWithJSON(w, http.StatusOK, transitions)
}
