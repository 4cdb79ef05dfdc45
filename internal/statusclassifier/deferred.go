package statusclassifier

import (
	"sync"
	"time"

	"github.com/voxorbit/callorbit/pkg/telephony"
)

// defaultTerminalQuietMs is how long a terminal status is held if media
// activity was observed within the window, so an out-of-order provider
// callback doesn't race the natural end-of-call notification.
const defaultTerminalQuietMs = 8000

// Deferred holds one pending terminal classification per call, releasing
// it once the quiet window elapses without further media activity.
type Deferred struct {
	quiet time.Duration

	mu      sync.Mutex
	pending map[string]*pendingTerminal
}

type pendingTerminal struct {
	status       telephony.CallStatus
	voicemail    bool
	lastActivity time.Time
	armedAt      time.Time
}

// NewDeferred returns a Deferred using the default 8s quiet window.
func NewDeferred() *Deferred {
	return &Deferred{quiet: defaultTerminalQuietMs * time.Millisecond, pending: make(map[string]*pendingTerminal)}
}

// Arm records a terminal classification for callID, starting its quiet
// window from now.
func (d *Deferred) Arm(callID string, status telephony.CallStatus, voicemail bool, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[callID] = &pendingTerminal{status: status, voicemail: voicemail, lastActivity: now, armedAt: now}
}

// NoteActivity resets the quiet window for a pending terminal
// classification if media activity is observed for callID before it
// fires.
func (d *Deferred) NoteActivity(callID string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[callID]; ok {
		p.lastActivity = now
	}
}

// Ready reports whether callID's pending terminal classification has
// cleared its quiet window (no activity observed since it was armed, for
// at least the quiet duration), returning the classification to release.
func (d *Deferred) Ready(callID string, now time.Time) (telephony.CallStatus, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[callID]
	if !ok {
		return "", false, false
	}
	if now.Sub(p.lastActivity) < d.quiet {
		return "", false, false
	}
	delete(d.pending, callID)
	return p.status, p.voicemail, true
}

// Cancel removes any pending terminal classification for callID without
// releasing it, used when a call is torn down before its quiet window
// elapses.
func (d *Deferred) Cancel(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, callID)
}
