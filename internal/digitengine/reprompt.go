package digitengine

import (
	"fmt"
	"strconv"
	"time"
)

// Affect is an adaptive "caller impatience" signal used to decide whether
// an incomplete buffer is echoed back before reprompting.
type Affect string

// Supported affect readings.
const (
	AffectUnknown Affect = ""
	AffectLow     Affect = "low"
	AffectNormal  Affect = "normal"
)

// Reprompt is the text and delay chosen for one reprompt.
type Reprompt struct {
	Text        string
	DelayMs     int
	DTMFOnly    bool
	FinalAttempt bool
}

// sensitiveProfiles never have their partial buffer echoed back, even for
// incomplete candidates.
var sensitiveProfiles = map[string]bool{
	"pin": true, "ssn": true, "cvv": true, "card_number": true,
	"card_expiry": true, "routing_number": true, "account_number": true,
	"verification": true,
}

// ChooseReprompt selects a reprompt string and delay for attempt based on
// the classification reason, the partial buffer (if any), attempt index vs
// max-retries, and the caller-affect signal.
func ChooseReprompt(exp *Expectation, reason Reason, partial string, affect Affect) Reprompt {
	final := exp.Retries >= exp.MaxRetries
	bag := bagFor(exp, reason)
	text := pick(bag, exp.AttemptCount)
	if final {
		text = text + " This is your last attempt."
	}

	switch reason {
	case ReasonTooFast:
		return Reprompt{Text: "Please press more slowly. " + text, DelayMs: 250, FinalAttempt: final}
	case ReasonTimeoutReason:
		return Reprompt{Text: text, DelayMs: 0, FinalAttempt: final}
	case ReasonSpamPattern:
		return Reprompt{Text: "That pattern does not look right. " + text, DelayMs: 0, DTMFOnly: true, FinalAttempt: final}
	case ReasonIncomplete:
		if !sensitiveProfiles[exp.Profile] && partial != "" && affect != AffectLow {
			return Reprompt{Text: echoBack(partial) + " " + text, DelayMs: 0, FinalAttempt: final}
		}
	}
	return Reprompt{Text: text, DelayMs: 0, FinalAttempt: final}
}

func bagFor(exp *Expectation, reason Reason) []string {
	switch reason {
	case ReasonIncomplete:
		return exp.Reprompts[RepromptIncomplete]
	case ReasonTimeoutReason:
		return exp.Reprompts[RepromptTimeout]
	default:
		return exp.Reprompts[RepromptInvalid]
	}
}

func pick(bag []string, attempt int) string {
	if len(bag) == 0 {
		return ""
	}
	idx := attempt
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bag) {
		idx = len(bag) - 1
	}
	return bag[idx]
}

// echoBack assembles "I have 4-7-3. Enter the remaining digits." from a
// partial digit buffer.
func echoBack(partial string) string {
	spelled := make([]string, len(partial))
	for i := 0; i < len(partial); i++ {
		spelled[i] = strconv.Itoa(int(partial[i] - '0'))
	}
	joined := spelled[0]
	for _, d := range spelled[1:] {
		joined += "-" + d
	}
	return fmt.Sprintf("I have %s. Enter the remaining digits.", joined)
}

// promptDelay is max(1000ms, min-collect-delay-ms, estimated prompt speech
// ms), the delay after which the digit-timeout clock starts.
func promptDelay(exp *Expectation, promptSpeechMs int) time.Duration {
	ms := 1000
	if exp.MinCollectDelayMs > ms {
		ms = exp.MinCollectDelayMs
	}
	if promptSpeechMs > ms {
		ms = promptSpeechMs
	}
	return time.Duration(ms) * time.Millisecond
}
