package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"leadwatch/internal/models"
)

// RerunCall records one rerun-step request the fake backend received.
type RerunCall struct {
	JobID     string
	StepIndex int
}

// FakeBackend is an httptest stand-in for the content-generation backend's
// admin API. Tests script it by setting job snapshots.
type FakeBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	jobs       map[string]*models.Job
	rerunCalls []RerunCall
}

// NewFakeBackend starts a fake backend; it is shut down with the test.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{jobs: make(map[string]*models.Job)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake backend's base URL.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// SetJob installs (or replaces) the snapshot served for a job id.
func (f *FakeBackend) SetJob(job *models.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = job
}

// RerunCalls returns the rerun-step requests received so far.
func (f *FakeBackend) RerunCalls() []RerunCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RerunCall(nil), f.rerunCalls...)
}

func (f *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expected shapes:
	//   admin/jobs/{id}
	//   admin/jobs/{id}/execution-steps
	//   admin/jobs/{id}/rerun-step
	if len(parts) < 3 || parts[0] != "admin" || parts[1] != "jobs" {
		http.NotFound(w, r)
		return
	}
	jobID := parts[2]

	f.mu.Lock()
	job, ok := f.jobs[jobID]
	f.mu.Unlock()

	switch {
	case len(parts) == 3 && r.Method == http.MethodGet:
		if !ok {
			http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(job)

	case len(parts) == 4 && parts[3] == "execution-steps" && r.Method == http.MethodGet:
		if !ok {
			http.Error(w, `{"error":"job not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"execution_steps": job.ExecutionSteps})

	case len(parts) == 4 && parts[3] == "rerun-step" && r.Method == http.MethodPost:
		var payload struct {
			StepIndex int `json:"step_index"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.rerunCalls = append(f.rerunCalls, RerunCall{JobID: jobID, StepIndex: payload.StepIndex})
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)

	default:
		http.NotFound(w, r)
	}
}
