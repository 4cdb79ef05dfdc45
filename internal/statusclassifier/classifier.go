// Package statusclassifier normalizes provider call-status events and
// reconciles them against observed call evidence before they are treated
// as authoritative.
package statusclassifier

import (
	"time"

	"github.com/voxorbit/callorbit/pkg/telephony"
)

// Evidence is what the classifier knows about a call beyond the raw
// status string: whether it was ever answered, whether media was
// observed, and its prior classified status.
type Evidence struct {
	AnsweredAt   *time.Time
	MediaSeen    bool
	PriorStatus  telephony.CallStatus
	Duration     time.Duration
}

const shortCallThreshold = 3 * time.Second

// Classify normalizes a raw status plus answered-by signal and applies
// the reconciliation rules, in order: machine/fax answered-by forces
// no-answer with voicemail detected; a suspiciously short "completed"
// with no answer evidence downgrades to no-answer; a "no-answer" with
// answer evidence upgrades to completed; an "in-progress" with no answer
// evidence downgrades to ringing.
func Classify(raw telephony.CallStatus, answeredBy telephony.AnsweredBy, ev Evidence) (status telephony.CallStatus, voicemailDetected bool) {
	status = raw

	switch answeredBy {
	case telephony.AnsweredByMachine, telephony.AnsweredByMachineStart,
		telephony.AnsweredByMachineEnd, telephony.AnsweredByFax:
		return telephony.StatusNoAnswer, true
	}

	answered := ev.AnsweredAt != nil || ev.MediaSeen ||
		ev.PriorStatus == telephony.StatusAnswered || ev.PriorStatus == telephony.StatusInProgress

	switch status {
	case telephony.StatusCompleted:
		if ev.Duration < shortCallThreshold && !answered {
			return telephony.StatusNoAnswer, false
		}
	case telephony.StatusNoAnswer:
		if answered {
			return telephony.StatusCompleted, false
		}
	case telephony.StatusInProgress:
		if !answered {
			return telephony.StatusRinging, false
		}
	}
	return status, false
}

// IsTerminal reports whether status is a call-ending status that should
// be deferred through the terminal-quiet window before being treated as
// authoritative.
func IsTerminal(status telephony.CallStatus) bool {
	switch status {
	case telephony.StatusCompleted, telephony.StatusBusy, telephony.StatusNoAnswer,
		telephony.StatusFailed, telephony.StatusCanceled, telephony.StatusVoicemail:
		return true
	}
	return false
}
