package notifier

import "sync"

// MemoryGate is an in-process [TerminalStatusSent] implementation tracking,
// per call-id, whether a terminal-status notification has already been
// dispatched to the operator. A call-id is forgotten on Forget, bounding
// memory growth as calls complete.
type MemoryGate struct {
	mu   sync.Mutex
	sent map[string]bool
}

// NewMemoryGate returns an empty MemoryGate.
func NewMemoryGate() *MemoryGate {
	return &MemoryGate{sent: make(map[string]bool)}
}

// MarkSent records that callID's terminal status has been sent.
func (g *MemoryGate) MarkSent(callID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent[callID] = true
}

// TerminalStatusSent reports whether callID's terminal status was marked sent.
func (g *MemoryGate) TerminalStatusSent(callID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent[callID]
}

// Forget drops callID's entry, used once a call's notifications have all
// drained so the map does not grow without bound across a long process
// lifetime.
func (g *MemoryGate) Forget(callID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sent, callID)
}
