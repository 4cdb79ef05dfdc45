// Package registry owns every per-call substructure — the call session,
// its digit expectation, digit plan, console entry, and notification
// index — keyed by call-id, and hands callers opaque handles rather than
// direct map references so the registry retains sole authority over
// creation and teardown.
package registry

import (
	"sync"

	"github.com/voxorbit/callorbit/internal/digitengine"
	"github.com/voxorbit/callorbit/internal/profile"
	"github.com/voxorbit/callorbit/internal/timer"
)

// Call bundles one call's owned subsystems. Callers obtain a *Call via
// [Registry.Get] or [Registry.Create] and must not retain it past
// [Registry.Remove].
type Call struct {
	ID string

	mu sync.Mutex

	Digits *digitengine.Engine
	Timers *timer.Manager

	// Opaque per-call state owned by other packages (console entry,
	// session phase, notification index) is attached by those packages
	// via Extra rather than this package knowing their shapes.
	Extra map[string]any
}

// Lock serializes operator-initiated actions against this call, per the
// orchestrator's requirement that console-triggered actions never race.
func (c *Call) Lock()   { c.mu.Lock() }
func (c *Call) Unlock() { c.mu.Unlock() }

// Registry is the process-wide, concurrency-safe map of active calls.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Call
	breaker *digitengine.Breaker
}

// New returns an empty Registry. The digit-collection circuit breaker is
// process-global and created once here, shared by every call's Engine so
// its rolling error window spans the whole process rather than resetting
// per call.
func New() *Registry {
	return &Registry{calls: make(map[string]*Call), breaker: digitengine.NewBreaker()}
}

// Create installs a new Call for id, or returns the existing one if
// already present (idempotent against duplicate provider start events).
func (r *Registry) Create(id string, profiles *profile.Registry, health digitengine.HealthProvider, risk digitengine.RiskProvider) *Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[id]; ok {
		return c
	}
	c := &Call{
		ID:     id,
		Digits: digitengine.NewEngine(id, profiles, r.breaker, health, risk),
		Timers: timer.New(),
		Extra:  make(map[string]any),
	}
	r.calls[id] = c
	return c
}

// Get returns the Call for id, if active.
func (r *Registry) Get(id string) (*Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	return c, ok
}

// Remove tears down and forgets id. Idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.calls[id]
	delete(r.calls, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	c.Digits.ClearCallState()
	c.Timers.ClearAll()
}

// Len reports the number of active calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}
