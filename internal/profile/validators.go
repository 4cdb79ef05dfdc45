package profile

import "strconv"

// routingWeights are the ABA weighted-checksum digit weights, applied
// position-by-position and summed mod 10.
var routingWeights = [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}

// FailureReason names why a validator rejected a candidate.
type FailureReason string

// Validator failure reasons.
const (
	ReasonNone           FailureReason = ""
	ReasonInvalidLength  FailureReason = "invalid_length"
	ReasonInvalidLuhn    FailureReason = "invalid_luhn"
	ReasonInvalidRouting FailureReason = "invalid_routing"
	ReasonInvalidMonth   FailureReason = "invalid_month"
	ReasonInvalidDay     FailureReason = "invalid_day"
)

// Validate runs the validator named by kind against digits (already
// confirmed to be within [min,max] length by the caller). It returns
// ReasonNone on success.
func Validate(kind Validator, digits string) FailureReason {
	switch kind {
	case ValidatorLuhn:
		if !luhnValid(digits) {
			return ReasonInvalidLuhn
		}
	case ValidatorRouting:
		if !routingValid(digits) {
			return ReasonInvalidRouting
		}
	case ValidatorOTP:
		// Any length already satisfying the band is accepted; bound
		// clamping to [4,8] happens at normalization time, not here.
	case ValidatorDOB:
		return dobValid(digits)
	case ValidatorExpiry:
		return expiryValid(digits)
	case ValidatorNone:
		// no-op
	}
	return ReasonNone
}

// luhnValid implements the standard Luhn mod-10 checksum.
func luhnValid(digits string) bool {
	if len(digits) == 0 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// routingValid implements the ABA routing-number weighted checksum:
// weights [3,7,1,3,7,1,3,7,1] applied to the first 9 digits, summed, and
// checked for divisibility by 10.
func routingValid(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	sum := 0
	for i, w := range routingWeights {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		sum += d * w
	}
	return sum%10 == 0
}

// dobValid performs a plausible month/day check. It expects digits to be
// either MMDD (4) or MMDDYYYY (8); the registry's DOB profile bounds permit
// both lengths.
func dobValid(digits string) FailureReason {
	if len(digits) != 4 && len(digits) != 8 {
		return ReasonInvalidLength
	}
	month, _ := strconv.Atoi(digits[0:2])
	day, _ := strconv.Atoi(digits[2:4])
	if month == 0 || month > 12 {
		return ReasonInvalidMonth
	}
	if day == 0 || day > 31 {
		return ReasonInvalidDay
	}
	return ReasonNone
}

// expiryValid checks a card-expiry MMYY value for a plausible month (1-12).
func expiryValid(digits string) FailureReason {
	if len(digits) != 4 {
		return ReasonInvalidLength
	}
	month, _ := strconv.Atoi(digits[0:2])
	if month == 0 || month > 12 {
		return ReasonInvalidMonth
	}
	return ReasonNone
}
