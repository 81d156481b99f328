// Package backend is the HTTP client for the content-generation backend's
// admin REST API. leadwatch only reads job records and triggers step reruns;
// the records themselves are owned by the backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadwatch/internal/models"
)

// Client talks to the job backend.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// New creates a new backend client. token may be empty for backends that
// do not require auth (local development).
func New(baseURL, token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

// StatusError is returned for non-2xx backend responses so callers can
// distinguish transport failures from HTTP-level ones.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short prefix of the body for the error message.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJob fetches the current snapshot of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id must not be empty")
	}
	req, err := c.newRequest(ctx, "GET", fmt.Sprintf("/admin/jobs/%s", jobID), nil)
	if err != nil {
		return nil, err
	}
	var job models.Job
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobSteps fetches the execution-steps collection separately. Some call
// sites want this in polling mode because the job record may carry a
// truncated view of step outputs.
func (c *Client) GetJobSteps(ctx context.Context, jobID string) ([]models.ExecutionStep, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id must not be empty")
	}
	req, err := c.newRequest(ctx, "GET", fmt.Sprintf("/admin/jobs/%s/execution-steps", jobID), nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		ExecutionSteps []models.ExecutionStep `json:"execution_steps"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	return payload.ExecutionSteps, nil
}

// RerunStep asks the backend to re-execute a single step in place.
// stepIndex is 0-based, matching the dashboard's step list.
func (c *Client) RerunStep(ctx context.Context, jobID string, stepIndex int) error {
	if jobID == "" {
		return fmt.Errorf("job id must not be empty")
	}
	body, err := json.Marshal(map[string]int{"step_index": stepIndex})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "POST", fmt.Sprintf("/admin/jobs/%s/rerun-step", jobID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
