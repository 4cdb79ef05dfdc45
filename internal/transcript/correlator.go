package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voxorbit/callorbit/internal/digitengine"
	"github.com/voxorbit/callorbit/pkg/types"
)

const (
	defaultOTPMin = 4
	defaultOTPMax = 8
)

var digitRunPattern = regexp.MustCompile(`\d+`)

var spokenDigitWords = map[string]byte{
	"zero": '0', "oh": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// Bounds narrows masking and OTP extraction to an active expectation's
// accepted digit-length range. A zero Bounds falls back to the default
// 4-8 digit OTP window.
type Bounds struct {
	Min int
	Max int
}

func (b Bounds) orDefault() Bounds {
	if b.Min == 0 && b.Max == 0 {
		return Bounds{Min: defaultOTPMin, Max: defaultOTPMax}
	}
	return b
}

// MaskForLLM replaces digit runs and spoken-digit-word sequences whose
// length falls within bounds with a fixed-length redaction, producing a
// variant of utterance suitable to forward to the language model when an
// active expectation requests masking.
func MaskForLLM(utterance string, bounds Bounds) string {
	b := bounds.orDefault()
	masked := digitRunPattern.ReplaceAllStringFunc(utterance, func(run string) string {
		if len(run) >= b.Min && len(run) <= b.Max {
			return "******"
		}
		return run
	})
	return maskSpokenDigitRuns(masked, b)
}

// MaskForLogs unconditionally redacts 4+-digit runs and spoken-digit
// sequences for live-console preview and persistence, regardless of
// whether an expectation is active.
func MaskForLogs(utterance string) string {
	masked := digitRunPattern.ReplaceAllStringFunc(utterance, func(run string) string {
		if len(run) >= 4 {
			return "******"
		}
		return run
	})
	return maskSpokenDigitRuns(masked, Bounds{Min: 4, Max: 50})
}

func maskSpokenDigitRuns(utterance string, b Bounds) string {
	words := strings.Fields(utterance)
	var out []string
	i := 0
	for i < len(words) {
		run, consumed := spokenDigitRunAt(words, i)
		if consumed >= b.Min && consumed <= b.Max {
			out = append(out, "******")
			i += consumed
			continue
		}
		_ = run
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

func spokenDigitRunAt(words []string, start int) (string, int) {
	var run strings.Builder
	i := start
	for i < len(words) {
		d, ok := spokenDigitWords[strings.ToLower(strings.Trim(words[i], ".,!?"))]
		if !ok {
			break
		}
		run.WriteByte(d)
		i++
	}
	return run.String(), i - start
}

// ExtractOTP scans utterance for a digit run (numeric or spoken) whose
// length falls within the active expectation's bounds (or the default
// 4-8 digit window) and returns it.
func ExtractOTP(utterance string, bounds Bounds) (string, bool) {
	b := bounds.orDefault()
	for _, run := range digitRunPattern.FindAllString(utterance, -1) {
		if len(run) >= b.Min && len(run) <= b.Max {
			return run, true
		}
	}
	words := strings.Fields(utterance)
	for i := range words {
		run, consumed := spokenDigitRunAt(words, i)
		if consumed >= b.Min && consumed <= b.Max {
			return run, true
		}
	}
	return "", false
}

// BoundsFromExpectation derives correlator Bounds from an active digit
// expectation, or the zero value (which defaults) if exp is nil.
func BoundsFromExpectation(exp *digitengine.Expectation) Bounds {
	if exp == nil {
		return Bounds{}
	}
	return Bounds{Min: exp.MinDigits, Max: exp.MaxDigits}
}

// FormatConfidence renders a transcript's STT confidence for audit logs,
// falling back to "n/a" when the provider did not report one.
func FormatConfidence(t types.Transcript) string {
	if t.Confidence == 0 {
		return "n/a"
	}
	return strconv.FormatFloat(t.Confidence, 'f', 2, 64)
}
