// Package profile provides the immutable digit-profile registry: a
// compile-time table keyed by normalized profile id, carrying length
// bounds, default timeout/retries, a validator kind, a masking strategy,
// and an allowed-channel policy.
package profile

import "strings"

// Validator names a digit-shape validation strategy.
type Validator string

// Supported validator kinds.
const (
	ValidatorNone    Validator = "none"
	ValidatorLuhn    Validator = "luhn"
	ValidatorRouting Validator = "routing"
	ValidatorOTP     Validator = "otp"
	ValidatorDOB     Validator = "dob"
	ValidatorExpiry  Validator = "expiry"
)

// MaskStrategy names how a collected value is rendered for display/logging.
type MaskStrategy string

// Supported mask strategies.
const (
	MaskFull  MaskStrategy = "masked" // fully masked, e.g. "******"
	MaskLast4 MaskStrategy = "last4"  // e.g. "****1234"
)

// Channel is an input channel a profile may be collected over.
type Channel string

// Supported channels.
const (
	ChannelDTMF  Channel = "dtmf"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// Profile is one row of the registry.
type Profile struct {
	// ID is the normalized profile identifier, e.g. "verification", "pin".
	ID string

	MinDigits int
	MaxDigits int

	DefaultTimeoutSeconds int
	DefaultMaxRetries     int

	Validator Validator
	Mask      MaskStrategy

	// Channels lists the channels this profile may be collected over, in
	// preference order.
	Channels []Channel
}

// allowsChannel reports whether ch is in p.Channels.
func (p Profile) allowsChannel(ch Channel) bool {
	for _, c := range p.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// AllowsSMS reports whether this profile may fall back to SMS collection.
func (p Profile) AllowsSMS() bool { return p.allowsChannel(ChannelSMS) }

// AllowsVoice reports whether this profile may be collected via spoken OTP
// extraction rather than DTMF alone.
func (p Profile) AllowsVoice() bool { return p.allowsChannel(ChannelVoice) }

// IsOTPLike reports whether this profile is subject to the OTP-family bound
// clamp (4 ≤ min ≤ max ≤ 8) applied during normalization.
func (p Profile) IsOTPLike() bool {
	return p.Validator == ValidatorOTP
}

// deprecated maps a hard-coded set of retired identifiers straight to
// "generic".
var deprecated = map[string]struct{}{
	"legacy_pin":    {},
	"old_otp":       {},
	"security_code": {}, // superseded by "verification"
	"bank_routing":  {}, // this exact spelling was retired outright, unlike
	// "routing" which lives on as a synonym of "routing_number"
}

// synonyms folds alternate spellings onto their canonical registry id.
var synonyms = map[string]string{
	"bank_account":  "account_number",
	"cvc":           "cvv",
	"zip_code":      "zip",
	"postal_code":   "zip",
	"routing":       "routing_number",
	"aba":           "routing_number",
	"card":          "card_number",
	"exp":           "card_expiry",
	"expiration":    "card_expiry",
	"birthdate":     "dob",
	"date_of_birth": "dob",
	"otp":           "verification",
	"passcode":      "pin",
	"order":         "order_number",
	"confirmation":  "confirmation_number",
	"member":        "member_id",
	"policy":        "policy_number",
	"claim":         "claim_number",
	"tracking":      "tracking_number",
	"ticket":        "ticket_number",
	"invoice":       "invoice_number",
	"reference":     "reference_number",
	"case":          "case_number",
}

// defaultTable is the compile-time registry of ~25 normalized profile ids.
var defaultTable = map[string]Profile{
	"verification": {ID: "verification", MinDigits: 4, MaxDigits: 8,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorOTP, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF, ChannelVoice, ChannelSMS}},
	"pin": {ID: "pin", MinDigits: 4, MaxDigits: 6,
		DefaultTimeoutSeconds: 20, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF}},
	"ssn": {ID: "ssn", MinDigits: 9, MaxDigits: 9,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 2,
		Validator: ValidatorNone, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF}},
	"dob": {ID: "dob", MinDigits: 4, MaxDigits: 8,
		DefaultTimeoutSeconds: 25, DefaultMaxRetries: 3,
		Validator: ValidatorDOB, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"routing_number": {ID: "routing_number", MinDigits: 9, MaxDigits: 9,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorRouting, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"account_number": {ID: "account_number", MinDigits: 4, MaxDigits: 17,
		DefaultTimeoutSeconds: 40, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"card_number": {ID: "card_number", MinDigits: 13, MaxDigits: 19,
		DefaultTimeoutSeconds: 45, DefaultMaxRetries: 3,
		Validator: ValidatorLuhn, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"cvv": {ID: "cvv", MinDigits: 3, MaxDigits: 4,
		DefaultTimeoutSeconds: 15, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF}},
	"card_expiry": {ID: "card_expiry", MinDigits: 4, MaxDigits: 4,
		DefaultTimeoutSeconds: 20, DefaultMaxRetries: 3,
		Validator: ValidatorExpiry, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF}},
	"zip": {ID: "zip", MinDigits: 5, MaxDigits: 9,
		DefaultTimeoutSeconds: 20, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"phone": {ID: "phone", MinDigits: 7, MaxDigits: 15,
		DefaultTimeoutSeconds: 25, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"amount": {ID: "amount", MinDigits: 1, MaxDigits: 10,
		DefaultTimeoutSeconds: 20, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"generic": {ID: "generic", MinDigits: 1, MaxDigits: 50,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF, ChannelVoice, ChannelSMS}},
	"extension": {ID: "extension", MinDigits: 2, MaxDigits: 5,
		DefaultTimeoutSeconds: 15, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF}},
	"order_number": {ID: "order_number", MinDigits: 4, MaxDigits: 12,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"confirmation_number": {ID: "confirmation_number", MinDigits: 6, MaxDigits: 12,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice, ChannelSMS}},
	"member_id": {ID: "member_id", MinDigits: 6, MaxDigits: 12,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"policy_number": {ID: "policy_number", MinDigits: 6, MaxDigits: 15,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"claim_number": {ID: "claim_number", MinDigits: 6, MaxDigits: 15,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"tracking_number": {ID: "tracking_number", MinDigits: 8, MaxDigits: 22,
		DefaultTimeoutSeconds: 35, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"ticket_number": {ID: "ticket_number", MinDigits: 4, MaxDigits: 12,
		DefaultTimeoutSeconds: 25, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
	"employee_id": {ID: "employee_id", MinDigits: 3, MaxDigits: 10,
		DefaultTimeoutSeconds: 20, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskFull,
		Channels: []Channel{ChannelDTMF}},
	"invoice_number": {ID: "invoice_number", MinDigits: 4, MaxDigits: 15,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"reference_number": {ID: "reference_number", MinDigits: 4, MaxDigits: 20,
		DefaultTimeoutSeconds: 30, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelSMS}},
	"case_number": {ID: "case_number", MinDigits: 4, MaxDigits: 15,
		DefaultTimeoutSeconds: 25, DefaultMaxRetries: 3,
		Validator: ValidatorNone, Mask: MaskLast4,
		Channels: []Channel{ChannelDTMF, ChannelVoice}},
}

// Registry is the normalized profile table. The zero value is not usable;
// construct with [New].
type Registry struct {
	rows map[string]Profile
}

// New constructs a [Registry] from the compile-time default table. extra
// entries, if provided, are merged in (overriding defaults with the same
// id) — this lets deployments extend the table via configuration without
// this package needing to know about every possible deployment profile.
func New(extra ...Profile) *Registry {
	rows := make(map[string]Profile, len(defaultTable)+len(extra))
	for id, p := range defaultTable {
		rows[id] = p
	}
	for _, p := range extra {
		rows[p.ID] = p
	}
	return &Registry{rows: rows}
}

// Normalize folds a raw profile identifier through synonym resolution and
// the deprecated-id table, then looks it up in the registry. Unknown ids
// are rejected outright: Normalize never substitutes generic itself, that
// decision belongs to the caller at the point digits enter the system.
func (r *Registry) Normalize(rawID string) (Profile, bool) {
	id := strings.ToLower(strings.TrimSpace(rawID))
	if _, isDeprecated := deprecated[id]; isDeprecated {
		id = "generic"
	}
	if canonical, ok := synonyms[id]; ok {
		id = canonical
	}
	p, ok := r.rows[id]
	return p, ok
}

// MustGeneric returns the always-present "generic" fallback profile.
func (r *Registry) MustGeneric() Profile {
	return r.rows["generic"]
}

// Lookup returns the profile for an already-canonical id without applying
// synonym/deprecation folding.
func (r *Registry) Lookup(id string) (Profile, bool) {
	p, ok := r.rows[id]
	return p, ok
}
