package models

import "time"

// Job statuses as the backend reports them.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is one invocation of a content-generation workflow for a lead.
// It mirrors the backend's job record; leadwatch holds a read-mostly copy.
type Job struct {
	JobID          string          `json:"job_id"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
	CompletedAt    *string         `json:"completed_at,omitempty"`
	FailedAt       *string         `json:"failed_at,omitempty"`
	ExecutionSteps []ExecutionStep `json:"execution_steps,omitempty"`
	LiveStep       *LiveStep       `json:"live_step,omitempty"`
}

// ExecutionStep is one stage of a job's workflow (e.g. "Deep Research",
// "HTML Rewrite"). Steps are identified by step_order within a job.
type ExecutionStep struct {
	StepOrder int      `json:"step_order"` // 1-based
	StepName  string   `json:"step_name"`
	Status    string   `json:"status"`
	Output    *string  `json:"output,omitempty"` // opaque payload, never inspected beyond emptiness
	ImageURLs []string `json:"image_urls,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// LiveStep is the backend's streaming preview of the step currently running.
type LiveStep struct {
	StepOrder int     `json:"step_order"`
	Preview   string  `json:"preview"`
	Truncated bool    `json:"truncated"`
	Error     *string `json:"error,omitempty"`
}

// IsTerminal reports whether a job status will never change again.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// StepByOrder returns the step with the given 1-based order, or nil.
func (j *Job) StepByOrder(order int) *ExecutionStep {
	for i := range j.ExecutionSteps {
		if j.ExecutionSteps[i].StepOrder == order {
			return &j.ExecutionSteps[i]
		}
	}
	return nil
}

// StatusTransition is one observed change of a job's status, as recorded
// by a watcher. History only; it never feeds back into reconciliation.
type StatusTransition struct {
	ID         int64     `json:"id"`
	JobID      string    `json:"job_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ObservedAt time.Time `json:"observed_at"`
}
