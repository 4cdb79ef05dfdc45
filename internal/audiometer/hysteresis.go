package audiometer

import "time"

const (
	defaultUserLevelThreshold = 0.08
	defaultUserHoldMs         = 450
)

// Phase is a speech on/off transition published by the hysteresis
// detector.
type Phase string

// Published phases.
const (
	PhaseUserSpeaking Phase = "user_speaking"
	PhaseInterrupted  Phase = "interrupted"
	PhaseListening    Phase = "listening"
	PhaseNone         Phase = ""
)

// Hysteresis tracks speaking/not-speaking state across a stream of level
// samples, requiring the level to stay below threshold for a hold period
// before declaring speech over — this avoids flapping on brief dips
// mid-utterance.
type Hysteresis struct {
	Threshold float64
	HoldMs    int

	speaking    bool
	lastAboveAt time.Time
}

// NewHysteresis returns a Hysteresis using the default threshold (0.08)
// and hold period (450ms).
func NewHysteresis() *Hysteresis {
	return &Hysteresis{Threshold: defaultUserLevelThreshold, HoldMs: defaultUserHoldMs}
}

// Observe folds one level sample at time now into the detector, given
// whether the agent is currently speaking (to distinguish a fresh
// speech-start from a barge-in interruption), and returns the phase
// transition to publish, if any.
func (h *Hysteresis) Observe(level float64, agentSpeaking bool, now time.Time) Phase {
	above := level >= h.Threshold
	if above {
		wasSpeaking := h.speaking
		h.speaking = true
		h.lastAboveAt = now
		if !wasSpeaking {
			if agentSpeaking {
				return PhaseInterrupted
			}
			return PhaseUserSpeaking
		}
		return PhaseNone
	}

	if h.speaking && now.Sub(h.lastAboveAt) >= time.Duration(h.HoldMs)*time.Millisecond {
		h.speaking = false
		return PhaseListening
	}
	return PhaseNone
}

// Speaking reports the detector's current speaking state.
func (h *Hysteresis) Speaking() bool { return h.speaking }
