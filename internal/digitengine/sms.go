package digitengine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// smsFallbackMinRetries is the number of qualifying retries recorded before
// the engine offers the SMS fallback path.
const smsFallbackMinRetries = 2

// smsFallbackReasons is the set of rejection reasons that count toward the
// SMS-fallback retry threshold.
var smsFallbackReasons = map[Reason]bool{
	ReasonLowConfidence: true,
	ReasonTimeoutReason: true,
	ReasonSpamPattern:   true,
	ReasonTooFast:       true,
}

// QualifiesForSMSFallback counts how many entries in history carry a
// reason in smsFallbackReasons and reports whether that count has reached
// smsFallbackMinRetries.
func QualifiesForSMSFallback(history []Attempt) bool {
	n := 0
	for _, a := range history {
		if smsFallbackReasons[a.Reason] {
			n++
		}
	}
	return n >= smsFallbackMinRetries
}

// CorrelationID synthesizes an SMS fallback correlation id from the last
// six characters of callID plus a short random suffix, e.g.
// "SMS-a1b2c3-9f8e".
func CorrelationID(callID string) (string, error) {
	suffix := callID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("SMS-%s-%s", suffix, hex.EncodeToString(buf)), nil
}
