package digitengine

import (
	"math"
	"strings"

	"github.com/voxorbit/callorbit/internal/profile"
)

// wordsPerMinuteCollect is the speaking rate used to estimate how long a
// digit-collection prompt takes to speak, in estimatePromptSpeechMs.
const wordsPerMinuteCollect = 150

const (
	minCollectDelayFloorMs = 800
	minCollectDelayBaseMs  = 3000

	minTimeoutSeconds = 3
	maxTimeoutSeconds = 60

	minRetries = 0
	maxRetries = 5

	otpMinDigits = 4
	otpMaxDigits = 8
)

// SetParams is operator-supplied input to SetExpectation, prior to
// normalization.
type SetParams struct {
	Profile         string
	InferFromPrompt string // prompt text, used when Profile is empty

	MinDigits int
	MaxDigits int
	ForceExactLength int

	TimeoutSeconds int
	MaxRetries     int

	Channel         Channel
	Terminator      byte
	AllowTerminator bool

	MaskForLLM        bool
	SpeakConfirmation bool
	Confirmation      ConfirmationStyle

	Reprompts             map[RepromptKind][]string
	FailureMessage        string
	TimeoutFailureMessage string

	Plan *PlanLinkage
}

// estimatePromptSpeechMs estimates how long prompt (in words) takes to
// speak at wordsPerMinuteCollect, used as a floor for the digit-collection
// window so a caller has finished hearing the prompt before the clock
// starts.
func estimatePromptSpeechMs(prompt string) int {
	words := len(strings.Fields(prompt))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinuteCollect * 60000))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolveProfile prefers an explicit profile id, then a keyword inference
// from the prompt, then the generic fallback. Inference takes the first
// keyword found in map iteration order, without scoring, so a prompt that
// matches several keywords may resolve to any of them. Inference for OTP
// requires an action verb ("press", "enter", "dial", "type", "say")
// together with an OTP keyword; an explicit numeric length in the prompt
// is not used.
func resolveProfile(reg *profile.Registry, params SetParams) profile.Profile {
	if params.Profile != "" {
		if p, ok := reg.Normalize(params.Profile); ok {
			return p
		}
	}
	if id, ok := inferProfileID(params.InferFromPrompt); ok {
		if p, ok := reg.Normalize(id); ok {
			return p
		}
	}
	return reg.MustGeneric()
}

var actionVerbs = []string{"press", "enter", "dial", "type", "say"}

var promptKeywords = map[string]string{
	"verification code": "verification",
	"one-time":           "verification",
	"one time":           "verification",
	"otp":                "verification",
	"pin":                "pin",
	"social security":    "ssn",
	"ssn":                "ssn",
	"date of birth":      "dob",
	"birthdate":          "dob",
	"routing number":     "routing_number",
	"account number":     "account_number",
	"card number":        "card_number",
	"security code":      "cvv",
	"cvv":                "cvv",
	"expiration":         "card_expiry",
	"zip code":           "zip",
	"phone number":       "phone",
	"amount":             "amount",
}

func inferProfileID(prompt string) (string, bool) {
	if prompt == "" {
		return "", false
	}
	lower := strings.ToLower(prompt)

	hasVerb := false
	for _, v := range actionVerbs {
		if strings.Contains(lower, v) {
			hasVerb = true
			break
		}
	}

	for kw, id := range promptKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		if id == "verification" {
			if !hasVerb {
				continue
			}
		}
		return id, true
	}
	return "", false
}

// normalizeBounds applies the registry bounds, the OTP 4..8 clamp, and the
// force-exact-length override.
func normalizeBounds(p profile.Profile, params SetParams) (min, max int) {
	min, max = params.MinDigits, params.MaxDigits
	if min < p.MinDigits {
		min = p.MinDigits
	}
	if max > p.MaxDigits || max == 0 {
		max = p.MaxDigits
	}
	if p.IsOTPLike() {
		if min < otpMinDigits {
			min = otpMinDigits
		}
		if max > otpMaxDigits {
			max = otpMaxDigits
		}
		if min > max {
			min = max
		}
	}
	if params.ForceExactLength > 0 {
		min, max = params.ForceExactLength, params.ForceExactLength
	}
	return min, max
}

func defaultReprompts(kind RepromptKind) []string {
	switch kind {
	case RepromptInvalid:
		return []string{"Sorry, that doesn't look right. Please try again."}
	case RepromptIncomplete:
		return []string{"I didn't get all the digits. Please enter them again."}
	case RepromptTimeout:
		return []string{"I didn't hear anything. Please try again."}
	}
	return nil
}

// SetExpectation derives a normalized [Expectation] from operator-supplied
// params, applies the health and risk policies, and returns the result
// ready to store.
func SetExpectation(reg *profile.Registry, params SetParams, health HealthStatus, risk float64) Expectation {
	p := resolveProfile(reg, params)
	min, max := normalizeBounds(p, params)

	timeout := params.TimeoutSeconds
	if timeout == 0 {
		timeout = p.DefaultTimeoutSeconds
	}
	timeout = clampInt(timeout, minTimeoutSeconds, maxTimeoutSeconds)

	maxR := params.MaxRetries
	if maxR == 0 {
		maxR = p.DefaultMaxRetries
	}
	maxR = clampInt(maxR, minRetries, maxRetries)

	promptMs := estimatePromptSpeechMs(params.InferFromPrompt)
	delay := promptMs
	if delay < minCollectDelayFloorMs {
		delay = minCollectDelayFloorMs
	}
	if delay < minCollectDelayBaseMs {
		delay = minCollectDelayBaseMs
	}

	reprompts := make(map[RepromptKind][]string, 3)
	for _, kind := range []RepromptKind{RepromptInvalid, RepromptIncomplete, RepromptTimeout} {
		if bag, ok := params.Reprompts[kind]; ok && len(bag) > 0 {
			reprompts[kind] = bag
		} else {
			reprompts[kind] = defaultReprompts(kind)
		}
	}

	channel := params.Channel
	if channel == "" {
		channel = ChannelDTMF
	}

	exp := Expectation{
		Profile:               p.ID,
		ValidatorKind:         p.Validator,
		MinDigits:             min,
		MaxDigits:             max,
		TimeoutSeconds:        timeout,
		MinCollectDelayMs:     delay,
		MaxRetries:            maxR,
		MaskForLLM:            params.MaskForLLM,
		SpeakConfirmation:     params.SpeakConfirmation,
		Confirmation:          params.Confirmation,
		Channel:               channel,
		Terminator:            params.Terminator,
		AllowTerminator:       params.AllowTerminator,
		Plan:                  params.Plan,
		Reprompts:             reprompts,
		FailureMessage:        params.FailureMessage,
		TimeoutFailureMessage: params.TimeoutFailureMessage,
		AllowSpokenFallback:   p.AllowsVoice(),
		AllowSMSFallback:      p.AllowsSMS(),
	}

	applyHealthPolicy(&exp, health)
	applyRiskPolicy(&exp, risk)

	return exp
}
