package digitengine

import (
	"strings"
	"time"

	"github.com/voxorbit/callorbit/internal/profile"
)

const (
	maxBufferedDigits   = 50
	defaultMinDTMFGapMs = 200
	confidenceThreshold = 0.45
	spamMinRepeating    = 6
	spamAscendingRun    = 8
)

// redeliveryWindow suppresses duplicate provider redelivery of the exact
// same raw event against a lone (non-plan) expectation: the same
// fingerprint landing again inside the window replays the cached outcome
// instead of re-mutating the buffer, retry count, and history. This
// mirrors planStepDedupWindow, which guards the plan-driven path.
const redeliveryWindow = 2500 * time.Millisecond

// cleanDigits strips any non-digit byte and caps the result at
// maxBufferedDigits to prevent unbounded buffer growth from a runaway
// input stream.
func cleanDigits(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw) && b.Len() < maxBufferedDigits; i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// isSpamPattern flags six-or-more repeating digits or a strictly ascending
// eight-digit run.
func isSpamPattern(digits string) bool {
	if len(digits) == 0 {
		return false
	}
	run := 1
	best := 1
	for i := 1; i < len(digits); i++ {
		if digits[i] == digits[i-1] {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	if best >= spamMinRepeating {
		return true
	}
	if len(digits) >= spamAscendingRun {
		ascending := 1
		for i := 1; i < len(digits); i++ {
			if digits[i] == digits[i-1]+1 {
				ascending++
				if ascending >= spamAscendingRun {
					return true
				}
			} else {
				ascending = 1
			}
		}
	}
	return false
}

// RecordDigits appends raw input to exp's buffer and classifies the
// resulting candidate. It mutates exp (buffer, retries, attempt count,
// history) and returns the Collection describing the outcome.
//
// Once a complete value has been accepted, its fingerprint is remembered
// for redeliveryWindow. A provider that redelivers the same DTMF/SMS event
// after acceptance would otherwise see an empty, just-cleared buffer
// reprocess the identical digits as fresh input and accept it a second
// time; instead the cached Collection from the first acceptance is
// replayed without mutating exp again. The fingerprint covers the buffer
// plus the new input, so it matches only a redelivered event that carried
// the whole accepted value; a redelivered last key of a key-by-key entry
// is recorded as fresh input.
func RecordDigits(exp *Expectation, raw string, meta RecordMeta, gapMs int, now time.Time) Collection {
	fp := fingerprint(exp.Buffer+cleanDigits(raw), exp.Profile, 0)
	if exp.lastAcceptedFingerprint == fp && now.Sub(exp.lastAcceptedAt) < redeliveryWindow {
		return exp.lastCollection
	}
	c := recordDigits(exp, raw, meta, gapMs, now)
	if c.Accepted {
		exp.lastAcceptedFingerprint = fp
		exp.lastAcceptedAt = now
		exp.lastCollection = c
	}
	return c
}

func recordDigits(exp *Expectation, raw string, meta RecordMeta, gapMs int, now time.Time) Collection {
	exp.Buffer += cleanDigits(raw)
	exp.AttemptCount++
	digits := exp.Buffer

	// Step 1: too-fast — a single key arriving inside the minimum DTMF gap.
	if gapMs >= 0 && gapMs < defaultMinDTMFGapMs && len(digits) == 1 {
		return exp.reject(ReasonTooFast, digits, meta, true)
	}

	// Step 2: too-long.
	if len(digits) > exp.MaxDigits {
		return exp.reject(ReasonTooLong, digits, meta, true)
	}

	// Step 3: incomplete. Not counted as a retry over DTMF; counted on
	// spoken/SMS channels.
	// The partial entry stays in the buffer so the next keys extend it.
	if len(digits) < exp.MinDigits {
		countsAsRetry := exp.Channel != ChannelDTMF
		c := exp.reject(ReasonIncomplete, digits, meta, countsAsRetry)
		exp.Buffer = digits
		return c
	}

	// Step 4: profile validator.
	if reason := validatorFailure(exp.ValidatorKind, digits); reason != ReasonNone {
		return exp.reject(reason, digits, meta, true)
	}

	// Step 5: spam heuristics override acceptance.
	if isSpamPattern(digits) {
		return exp.reject(ReasonSpamPattern, digits, meta, true)
	}

	// Step 6: confidence threshold.
	confidence, signals := computeConfidence(ReasonNone, meta, digits, exp.History)
	if confidence < confidenceThreshold {
		c := exp.reject(ReasonLowConfidence, digits, meta, true)
		c.Confidence = confidence
		c.ConfidenceSignal = signals
		return c
	}

	exp.History = append(exp.History, Attempt{Digits: digits, Reason: ReasonNone, At: now})
	exp.Buffer = ""

	return Collection{
		Accepted:         true,
		Digits:           digits,
		Length:           len(digits),
		Masked:           Mask(digits, true),
		Retries:          exp.Retries,
		AttemptCount:     exp.AttemptCount,
		Confidence:       confidence,
		ConfidenceSignal: signals,
	}
}

// reject records a rejection attempt, clears the buffer, optionally counts
// a retry, and (step 7) flags fallback once retries exceed the max.
func (exp *Expectation) reject(reason Reason, digits string, meta RecordMeta, countsAsRetry bool) Collection {
	exp.History = append(exp.History, Attempt{Digits: digits, Reason: reason})
	exp.Buffer = ""
	if countsAsRetry {
		exp.Retries++
	}
	confidence, signals := computeConfidence(reason, meta, digits, exp.History)
	fallback := exp.Retries > exp.MaxRetries
	return Collection{
		Accepted:         false,
		Reason:           reason,
		Digits:           digits,
		Length:           len(digits),
		Masked:           Mask(digits, true),
		Retries:          exp.Retries,
		Fallback:         fallback,
		AttemptCount:     exp.AttemptCount,
		Confidence:       confidence,
		ConfidenceSignal: signals,
	}
}

// validatorFailure dispatches to the profile package's validator for kind,
// mapping its FailureReason onto the engine's own Reason vocabulary.
func validatorFailure(kind profile.Validator, digits string) Reason {
	switch profile.Validate(kind, digits) {
	case profile.ReasonNone:
		return ReasonNone
	case profile.ReasonInvalidLength:
		return ReasonInvalidLength
	case profile.ReasonInvalidLuhn:
		return ReasonInvalidLuhn
	case profile.ReasonInvalidRouting:
		return ReasonInvalidRouting
	case profile.ReasonInvalidMonth:
		return ReasonInvalidMonth
	case profile.ReasonInvalidDay:
		return ReasonInvalidDay
	}
	return ReasonNone
}
