package console

import "time"

// InboundState is the pending/answered/declined/expired gate an inbound
// call passes through before the orchestrator has accepted or rejected it.
type InboundState string

// Inbound gating states.
const (
	InboundPending  InboundState = "pending"
	InboundAnswered InboundState = "answered"
	InboundDeclined InboundState = "declined"
	InboundExpired  InboundState = "expired"
)

const inboundRingExpiry = 30 * time.Second

// InboundGate tracks one inbound call's answer/decline decision so the
// bubble can display "ringing" until the operator (or a timeout) resolves
// it, after which the displayed status coerces to the call's real phase.
type InboundGate struct {
	state     InboundState
	ringSince time.Time
}

// NewInboundGate starts a gate in the pending state at ringSince.
func NewInboundGate(ringSince time.Time) *InboundGate {
	return &InboundGate{state: InboundPending, ringSince: ringSince}
}

// Answer transitions a pending gate to answered. No-op once resolved.
func (g *InboundGate) Answer() {
	if g.state == InboundPending {
		g.state = InboundAnswered
	}
}

// Decline transitions a pending gate to declined. No-op once resolved.
func (g *InboundGate) Decline() {
	if g.state == InboundPending {
		g.state = InboundDeclined
	}
}

// Tick expires a still-pending gate once ringSince is older than
// inboundRingExpiry, and reports the current state.
func (g *InboundGate) Tick(now time.Time) InboundState {
	if g.state == InboundPending && now.Sub(g.ringSince) >= inboundRingExpiry {
		g.state = InboundExpired
	}
	return g.state
}

// State returns the gate's current state without advancing it.
func (g *InboundGate) State() InboundState { return g.state }

// DisplayStatus coerces a call's normal phase label to "ringing" while the
// gate remains pending, so the bubble never shows a conversational phase
// before the call has actually been answered.
func (g *InboundGate) DisplayStatus(phase string) string {
	if g.state == InboundPending {
		return "ringing"
	}
	return phase
}
