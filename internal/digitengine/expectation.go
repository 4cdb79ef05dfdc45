// Package digitengine implements digit-collection expectations: deriving a
// normalized collection target from operator-supplied parameters, buffering
// and classifying DTMF/spoken/SMS input against it, driving multi-step
// plans, and falling back to SMS or voice when collection cannot succeed.
package digitengine

import (
	"time"

	"github.com/voxorbit/callorbit/internal/profile"
)

// Channel is an input channel digits may arrive over.
type Channel string

// Supported channels.
const (
	ChannelDTMF  Channel = "dtmf"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// ConfirmationStyle names how a successfully collected value is spoken back.
type ConfirmationStyle string

// Supported confirmation styles.
const (
	ConfirmNone         ConfirmationStyle = "none"
	ConfirmLast4        ConfirmationStyle = "last4"
	ConfirmSpokenAmount ConfirmationStyle = "spoken_amount"
)

// RepromptKind indexes the reprompt bags carried by an Expectation.
type RepromptKind string

// Reprompt bag kinds.
const (
	RepromptInvalid    RepromptKind = "invalid"
	RepromptIncomplete RepromptKind = "incomplete"
	RepromptTimeout    RepromptKind = "timeout"
)

// PlanLinkage ties an Expectation to a step of an active [Plan].
type PlanLinkage struct {
	PlanID     string
	StepIndex  int // 1-based
	TotalSteps int
}

// RiskAction names a side effect the risk policy attaches to an Expectation.
type RiskAction string

// RouteToAgent is the only defined risk action. It is a tag on the
// Expectation only: no code reads it, so acceptance does not route the
// call to an agent.
const RouteToAgent RiskAction = "route_to_agent"

// Attempt records one past classification outcome against an Expectation,
// used by the confidence model's consistency term and by echo-back reprompts.
type Attempt struct {
	Digits string
	Reason Reason
	At     time.Time
}

// Expectation is the live state of a single digit-collection target for one
// call. Zero or one exists per call at any instant.
type Expectation struct {
	Profile       string
	ValidatorKind profile.Validator

	MinDigits int
	MaxDigits int

	TimeoutSeconds    int
	MinCollectDelayMs int
	PromptedAt        time.Time
	EffectivePromptMs int

	MaxRetries   int
	Retries      int
	AttemptCount int

	MaskForLLM         bool
	SpeakConfirmation  bool
	Confirmation       ConfirmationStyle

	Channel         Channel
	Terminator      byte
	AllowTerminator bool

	Buffer  string
	History []Attempt

	Plan *PlanLinkage

	RiskScore  float64
	RiskAction RiskAction

	Reprompts map[RepromptKind][]string
	FailureMessage        string
	TimeoutFailureMessage string

	// AllowSpokenFallback gates the call session's spoken-OTP path: while it
	// is false, utterances during capture are not parsed for digits.
	// Disabled by the risk policy at the 0.70 threshold. The session does not
	// act on a Collection's Fallback flag, so an exhausted expectation
	// neither falls back to voice conversation nor ends the call.
	AllowSpokenFallback bool

	// AllowSMSFallback permits the SMS fallback path. False once the
	// expectation's profile does not allow the sms channel.
	AllowSMSFallback bool

	// ForceDTMFOnly is set only by the risk policy, at the 0.70 threshold,
	// together with clearing AllowSpokenFallback. A spam_pattern reject does
	// not set it, and no code reads it: spoken-OTP extraction is gated by
	// AllowSpokenFallback.
	ForceDTMFOnly bool

	lastAcceptedFingerprint string
	lastAcceptedAt          time.Time
	lastCollection          Collection

	// GroupLocked is set once a group plan has pinned the profile across steps,
	// preventing profile drift.
	GroupLocked bool
}

// Reason classifies why record-digits accepted, rejected, or deferred a
// candidate.
type Reason string

// Classification reasons.
const (
	ReasonNone           Reason = ""
	ReasonTooFast        Reason = "too_fast"
	ReasonTooLong        Reason = "too_long"
	ReasonIncomplete     Reason = "incomplete"
	ReasonInvalidLength  Reason = "invalid_length"
	ReasonInvalidLuhn    Reason = "invalid_luhn"
	ReasonInvalidRouting Reason = "invalid_routing"
	ReasonInvalidMonth   Reason = "invalid_month"
	ReasonInvalidDay     Reason = "invalid_day"
	ReasonSpamPattern    Reason = "spam_pattern"
	ReasonLowConfidence  Reason = "low_confidence"

	// ReasonTimeoutReason marks an attempt abandoned by timer expiry rather
	// than an in-band classification from RecordDigits.
	ReasonTimeoutReason Reason = "timeout"
)

// Collection is the result of record-digits: a candidate's classification
// plus confidence and fallback status.
type Collection struct {
	Accepted         bool
	Reason           Reason
	Digits           string
	Length           int
	Masked           string
	Retries          int
	Fallback         bool
	AttemptCount     int
	Confidence       float64
	ConfidenceSignal ConfidenceSignals
}

// ConfidenceSignals breaks the scalar confidence down into its weighted
// terms, carried through for audit logging.
type ConfidenceSignals struct {
	DTMFClarity   float64
	ASRConfidence float64
	Consistency   float64
	ContextFit    float64
}

// Mask renders digits per the profile's mask strategy: full (all asterisks)
// or last-4 digits visible.
func Mask(digits string, last4 bool) string {
	if !last4 || len(digits) <= 4 {
		masked := make([]byte, len(digits))
		for i := range masked {
			masked[i] = '*'
		}
		return string(masked)
	}
	visible := digits[len(digits)-4:]
	hidden := make([]byte, len(digits)-4)
	for i := range hidden {
		hidden[i] = '*'
	}
	return string(hidden) + visible
}
