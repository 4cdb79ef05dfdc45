// Package timer provides named per-call timers with cancellation
// semantics guaranteeing that a cleared timer never fires its handler.
package timer

import (
	"sync"
	"time"
)

// Name identifies one of a call's timer slots.
type Name string

// Timer slots bound to a Call Session.
const (
	Silence          Name = "silence"
	DigitTimeout     Name = "digit_timeout"
	ConsoleEdit      Name = "console_edit"
	PendingTerminal  Name = "pending_terminal"
	NoResponseInfer  Name = "no_response_infer"
)

// entry pairs a stdlib timer with a generation counter. Incrementing the
// generation before stopping the timer lets a handler that is already
// executing (raced against Clear) detect that it has been superseded and
// no-op instead of firing stale behavior.
type entry struct {
	timer      *time.Timer
	generation uint64
}

// Manager owns every named timer for one call. Safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	timers  map[Name]*entry
	closed  bool
	gen     uint64 // last generation handed out, across all names
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{timers: make(map[Name]*entry)}
}

// Set arms the named timer to fire handler after d, replacing and
// canceling any previous timer under the same name. The generation bump
// ensures a previous handler already queued on the runtime's timer
// goroutine observes it was superseded and does nothing.
func (m *Manager) Set(name Name, d time.Duration, handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.stopLocked(name)

	m.gen++
	gen := m.gen
	e := &entry{generation: gen}
	e.timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		current, ok := m.timers[name]
		fire := ok && current.generation == gen
		m.mu.Unlock()
		if fire {
			handler()
		}
	})
	m.timers[name] = e
}

// Reset re-arms the named timer with a new duration without changing its
// handler, equivalent to Set with the same handler captured at the prior
// Set call. Callers typically call Set again rather than Reset; Reset is
// exposed for callers that already hold the handler closure.
func (m *Manager) Reset(name Name, d time.Duration, handler func()) {
	m.Set(name, d, handler)
}

// Clear cancels the named timer. A handler for this name that has already
// begun executing concurrently will observe the generation mismatch and
// not fire further effects; a handler not yet started will never run.
func (m *Manager) Clear(name Name) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(name)
}

func (m *Manager) stopLocked(name Name) {
	e, ok := m.timers[name]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(m.timers, name)
}

// ClearAll cancels every armed timer. Called on session teardown.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.timers {
		m.stopLocked(name)
	}
	m.closed = true
}
