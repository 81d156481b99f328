package watch

import (
	"sync"
	"time"

	"leadwatch/internal/websocket"
)

// Manager tracks the active watchers, one per job id. Each watcher's state
// is independent; the manager only owns the map.
type Manager struct {
	fetcher    Fetcher
	recorder   TransitionRecorder
	hub        *websocket.Hub
	interval   time.Duration
	fetchSteps bool

	mu       sync.Mutex
	watchers map[string]*Watcher
}

func NewManager(fetcher Fetcher, recorder TransitionRecorder, hub *websocket.Hub, interval time.Duration, fetchSteps bool) *Manager {
	return &Manager{
		fetcher:    fetcher,
		recorder:   recorder,
		hub:        hub,
		interval:   interval,
		fetchSteps: fetchSteps,
		watchers:   make(map[string]*Watcher),
	}
}

// Watch starts polling the given job, or returns the existing watcher if
// one is already registered. A watcher whose loop has finished (terminal
// status) is restarted, in case the backend re-opened the job.
func (m *Manager) Watch(jobID string) *Watcher {
	m.mu.Lock()
	w, ok := m.watchers[jobID]
	if !ok {
		w = newWatcher(jobID, m.fetcher, m.recorder, m.hub, m.interval, m.fetchSteps)
		m.watchers[jobID] = w
	}
	m.mu.Unlock()

	w.start()
	return w
}

// Get returns the watcher for a job id, if present.
func (m *Manager) Get(jobID string) (*Watcher, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watchers[jobID]
	return w, ok
}

// Stop tears down the watcher for a job id and forgets it. It reports
// whether a watcher existed.
func (m *Manager) Stop(jobID string) bool {
	m.mu.Lock()
	w, ok := m.watchers[jobID]
	delete(m.watchers, jobID)
	m.mu.Unlock()

	if ok {
		w.Stop()
	}
	return ok
}

// StopAll tears down every watcher. Used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	watchers := make([]*Watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.watchers = make(map[string]*Watcher)
	m.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
}

// Statuses returns a snapshot of every registered watcher.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	watchers := make([]*Watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.mu.Unlock()

	statuses := make([]Status, 0, len(watchers))
	for _, w := range watchers {
		statuses = append(statuses, w.Status())
	}
	return statuses
}

// PollNow asks the watcher for a job id to tick immediately, if one is
// registered and running.
func (m *Manager) PollNow(jobID string) {
	if w, ok := m.Get(jobID); ok {
		w.PollNow()
	}
}
