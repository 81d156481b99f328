package watch

import (
	"context"
	"log"
	"sync"
	"time"

	"leadwatch/internal/models"
	"leadwatch/internal/websocket"
)

// Fetcher retrieves job snapshots from the backend. *backend.Client
// satisfies this; tests substitute fakes.
type Fetcher interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	GetJobSteps(ctx context.Context, jobID string) ([]models.ExecutionStep, error)
}

// TransitionRecorder persists observed status transitions. *store.Store
// satisfies this. Recording is best-effort; a failed write never affects
// the poll loop.
type TransitionRecorder interface {
	RecordTransition(jobID, from, to string, at time.Time) error
}

// Status is a point-in-time copy of a watcher's observable state.
type Status struct {
	JobID               string `json:"job_id"`
	State               State  `json:"state"`
	Rerunning           *int   `json:"rerunning_step,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastError           string `json:"last_error,omitempty"`
	Running             bool   `json:"running"`
}

// Watcher polls one job and reconciles its snapshots. It owns its timer:
// the poll goroutine is started by the manager and stopped either
// deterministically via Stop or by the continuation predicate going false.
// There is no global registry of timers.
type Watcher struct {
	jobID      string
	fetcher    Fetcher
	recorder   TransitionRecorder
	hub        *websocket.Hub
	interval   time.Duration
	fetchSteps bool

	mu        sync.Mutex
	state     State
	rerunning *int
	failures  int
	lastErr   error
	running   bool
	inFlight  bool
	stop      chan struct{}
	pollNow   chan struct{}
}

func newWatcher(jobID string, fetcher Fetcher, recorder TransitionRecorder, hub *websocket.Hub, interval time.Duration, fetchSteps bool) *Watcher {
	return &Watcher{
		jobID:      jobID,
		fetcher:    fetcher,
		recorder:   recorder,
		hub:        hub,
		interval:   interval,
		fetchSteps: fetchSteps,
		state:      NewState(jobID),
		pollNow:    make(chan struct{}, 1),
	}
}

// start launches the poll loop. Caller must hold no watcher lock.
func (w *Watcher) start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	stop := w.stop
	w.mu.Unlock()
	go w.loop(stop)
}

func (w *Watcher) loop(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Poll immediately on start rather than waiting out the first period.
	if !w.tick() {
		return
	}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.tick() {
				return
			}
		case <-w.pollNow:
			if !w.tick() {
				return
			}
		}
	}
}

// tick runs one fetch-and-merge cycle. It returns false when the loop
// should end. Fetch failures are counted and swallowed; the next tick
// retries at the same rate, there is no backoff.
func (w *Watcher) tick() bool {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return false
	}
	if w.inFlight {
		// Single-flight: the previous fetch has not resolved yet. Skip
		// this tick instead of racing two results for the same job.
		w.mu.Unlock()
		return true
	}
	w.inFlight = true
	jobID := w.jobID
	w.mu.Unlock()

	timeout := w.interval * 3
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	job, err := w.fetcher.GetJob(ctx, jobID)
	var steps []models.ExecutionStep
	if err == nil && w.fetchSteps {
		// The steps collection carries full outputs; the job record may
		// truncate them. A failure here falls back to the job's own view.
		if full, stepsErr := w.fetcher.GetJobSteps(ctx, jobID); stepsErr == nil {
			steps = full
		}
	}
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if !w.running {
		// Stopped while the fetch was in flight; discard the result.
		return false
	}

	if err != nil {
		w.failures++
		w.lastErr = err
		log.Printf("Poll tick for job %s failed (%d consecutive): %v", jobID, w.failures, err)
		return true
	}

	if steps != nil {
		job.ExecutionSteps = steps
	}

	res := Merge(w.state, job, jobID, w.rerunning)
	if res.Stale {
		// Response for a job this watcher no longer represents.
		return ShouldPoll(w.state.Status, w.rerunning)
	}

	prevStatus := w.state.Status
	w.state = res.State
	w.failures = 0
	w.lastErr = nil
	if res.RerunClearable {
		// Sole owner of this transition: the rerun marker is only ever
		// cleared here, from the poll loop.
		w.rerunning = nil
	}

	if res.StatusChanged && w.recorder != nil {
		if recErr := w.recorder.RecordTransition(jobID, prevStatus, w.state.Status, time.Now().UTC()); recErr != nil {
			log.Printf("Failed to record transition for job %s: %v", jobID, recErr)
		}
	}

	cont := ShouldPoll(w.state.Status, w.rerunning)
	if !cont {
		w.running = false
	}
	w.broadcastLocked(!cont)
	return cont
}

// broadcastLocked pushes the current state to websocket subscribers.
// Caller holds w.mu.
func (w *Watcher) broadcastLocked(done bool) {
	if w.hub == nil {
		return
	}
	w.hub.BroadcastJSON(models.StatusUpdate{
		JobID:        w.jobID,
		Status:       w.state.Status,
		StepCount:    len(w.state.ExecutionSteps),
		PollFailures: w.failures,
		Done:         done,
	})
}

// Stop tears the watcher down. No poll fires after Stop returns; a fetch
// already in flight has its result discarded when it resolves.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
}

// MarkRerunning records that the given 0-based step index is being
// recomputed server-side and ensures the poll loop is running so the
// marker can eventually clear. This is the only place the marker is set.
func (w *Watcher) MarkRerunning(stepIndex int) {
	w.mu.Lock()
	idx := stepIndex
	w.rerunning = &idx
	w.mu.Unlock()
	w.start()
}

// PollNow requests an immediate tick, used when a completion webhook
// arrives so the state catches up before the next scheduled period.
func (w *Watcher) PollNow() {
	select {
	case w.pollNow <- struct{}{}:
	default:
	}
}

// Status returns a copy of the watcher's observable state, including the
// poll-health fields that distinguish "healthy but still running" from
// "polling has been failing".
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{
		JobID:               w.jobID,
		State:               w.state,
		ConsecutiveFailures: w.failures,
		Running:             w.running,
	}
	if w.rerunning != nil {
		idx := *w.rerunning
		st.Rerunning = &idx
	}
	if w.lastErr != nil {
		st.LastError = w.lastErr.Error()
	}
	return st
}
