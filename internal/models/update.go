package models

// StatusUpdate is the payload broadcast to websocket subscribers after
// every poll tick that changed something worth showing.
type StatusUpdate struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	StepCount    int    `json:"step_count"`
	Message      string `json:"message,omitempty"`
	PollFailures int    `json:"poll_failures"`
	Done         bool   `json:"done"`
}
