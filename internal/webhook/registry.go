// Package webhook holds workflow-completion notifications pushed by the
// backend. Receipts give the dashboard a polling-free way to learn that a
// job finished; they are kept in memory only and swept after an hour.
package webhook

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a receipt stays available after arrival.
const TTL = time.Hour

// Receipt is one received completion notification.
type Receipt struct {
	ID         string          `json:"id"`
	JobID      string          `json:"job_id"`
	Status     string          `json:"status"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Poker is poked when a receipt arrives so an active watcher can fetch
// immediately instead of waiting out its poll period. *watch.Manager
// satisfies this.
type Poker interface {
	PollNow(jobID string)
}

// Registry is the in-memory receipt map, keyed by job id. Last write wins
// per job; the backend retries webhooks, so duplicates are expected.
type Registry struct {
	mu       sync.Mutex
	receipts map[string]Receipt
	poker    Poker
}

func NewRegistry(poker Poker) *Registry {
	return &Registry{
		receipts: make(map[string]Receipt),
		poker:    poker,
	}
}

// Record stores a receipt for a job and pokes the watcher, if any.
func (r *Registry) Record(jobID, status string, payload json.RawMessage) Receipt {
	receipt := Receipt{
		ID:         uuid.NewString(),
		JobID:      jobID,
		Status:     status,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	}

	r.mu.Lock()
	r.receipts[jobID] = receipt
	r.mu.Unlock()

	if r.poker != nil {
		r.poker.PollNow(jobID)
	}
	return receipt
}

// Get returns the receipt for a job id, if one is held.
func (r *Registry) Get(jobID string) (Receipt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[jobID]
	return receipt, ok
}

// Sweep drops receipts received before the cutoff and returns how many
// were removed. The scheduled job calls this hourly with time.Now()-TTL.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for jobID, receipt := range r.receipts {
		if receipt.ReceivedAt.Before(cutoff) {
			delete(r.receipts, jobID)
			removed++
		}
	}
	return removed
}

// Len reports how many receipts are currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.receipts)
}
