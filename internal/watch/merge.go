// Package watch implements the job status reconciliation engine: a merge
// function that folds fetched snapshots into held state, and per-job
// watchers that poll the backend while a job is live.
package watch

import (
	"leadwatch/internal/models"
)

// State is the reconciled in-memory view of one job, owned by the watcher
// that produced it. It is created when a watch starts and discarded when
// the watch is torn down; nothing here is persisted.
type State struct {
	JobID          string                 `json:"job_id"`
	Status         string                 `json:"status"`
	CreatedAt      string                 `json:"created_at,omitempty"`
	UpdatedAt      string                 `json:"updated_at,omitempty"`
	CompletedAt    *string                `json:"completed_at,omitempty"`
	FailedAt       *string                `json:"failed_at,omitempty"`
	ExecutionSteps []models.ExecutionStep `json:"execution_steps,omitempty"`
	LiveStep       *models.LiveStep       `json:"live_step,omitempty"`
}

// NewState returns the initial state for a job we have not fetched yet.
func NewState(jobID string) State {
	return State{JobID: jobID, Status: models.StatusPending}
}

// StepByOrder returns the merged step with the given 1-based order, or nil.
func (s *State) StepByOrder(order int) *models.ExecutionStep {
	for i := range s.ExecutionSteps {
		if s.ExecutionSteps[i].StepOrder == order {
			return &s.ExecutionSteps[i]
		}
	}
	return nil
}

// MergeResult carries the merged state plus what the merge observed.
// Merge never mutates anything itself; in particular it never clears the
// rerun marker, it only reports eligibility. The watcher poll loop is the
// single owner of that transition.
type MergeResult struct {
	State State
	// Stale is true when the snapshot belonged to a different job id and
	// was discarded.
	Stale bool
	// StatusChanged is true when the merge moved the job to a new status.
	StatusChanged bool
	// RerunClearable is true when the rerun marker's step now shows a
	// non-empty output and the job has left "processing".
	RerunClearable bool
}

// Merge folds a freshly fetched snapshot into prev without losing fields
// the snapshot does not carry.
//
// fetchedFor is the job id the fetch was issued for. A snapshot for a job
// other than prev's is a stale response from a watch that has since been
// retargeted or torn down, and is discarded unchanged.
//
// rerunning is the current rerun marker (0-based step index), or nil.
//
// Merge is idempotent: applying the same snapshot twice yields the same
// state both times.
func Merge(prev State, snap *models.Job, fetchedFor string, rerunning *int) MergeResult {
	if snap == nil || prev.JobID != fetchedFor {
		return MergeResult{State: prev, Stale: snap != nil}
	}
	// Some backends echo the job id in the snapshot; when they do, it must
	// match as well.
	if snap.JobID != "" && snap.JobID != prev.JobID {
		return MergeResult{State: prev, Stale: true}
	}

	merged := prev
	if snap.Status != "" {
		merged.Status = snap.Status
	}
	if snap.CreatedAt != "" {
		merged.CreatedAt = snap.CreatedAt
	}
	if snap.UpdatedAt != "" {
		merged.UpdatedAt = snap.UpdatedAt
	}
	if snap.CompletedAt != nil {
		merged.CompletedAt = snap.CompletedAt
	}
	if snap.FailedAt != nil {
		merged.FailedAt = snap.FailedAt
	}
	if snap.ExecutionSteps != nil {
		merged.ExecutionSteps = snap.ExecutionSteps
	}
	if snap.LiveStep != nil {
		merged.LiveStep = snap.LiveStep
	}

	res := MergeResult{
		State:         merged,
		StatusChanged: merged.Status != prev.Status,
	}

	if rerunning != nil && merged.Status != models.StatusProcessing {
		// The marker is a 0-based index into the step list; step_order is
		// 1-based, so the rerun target is marker+1.
		if step := res.State.StepByOrder(*rerunning + 1); step != nil {
			if step.Output != nil && *step.Output != "" {
				res.RerunClearable = true
			}
		}
	}
	return res
}

// ShouldPoll is the continuation predicate: keep polling while the job has
// not reached a terminal status or a step rerun is in flight. A job that
// reaches "completed" or "failed" is data like any other; the predicate
// going false is what stops the loop, not an error path.
func ShouldPoll(status string, rerunning *int) bool {
	return !models.IsTerminal(status) || rerunning != nil
}
