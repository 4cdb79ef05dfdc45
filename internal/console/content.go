package console

import (
	"strings"
	"time"
)

const (
	previewMaxChars      = 200
	highlightsMaxAll     = 4
	highlightsMaxInbound = 3

	smoothingFactor = 0.35

	workingLockMax = 1500 * time.Millisecond
)

// CallerFlag classifies an inbound caller for display.
type CallerFlag string

// Supported caller flags.
const (
	FlagNone    CallerFlag = "none"
	FlagBlocked CallerFlag = "blocked"
	FlagAllowed CallerFlag = "allowed"
	FlagSpam    CallerFlag = "spam"
)

// HealthLabel is the bubble's additive-scored connection-health label.
type HealthLabel string

// Supported health labels.
const (
	HealthStable   HealthLabel = "Stable"
	HealthDegraded HealthLabel = "Degraded"
	HealthAtRisk   HealthLabel = "At risk"
	HealthCritical HealthLabel = "Critical"
)

// QualitySample is one observation of call quality metrics.
type QualitySample struct {
	JitterMs      float64
	LatencyMs     float64
	PacketLossPct float64
	ASRConfidence float64
	ErrorKeyword  bool
}

// Quality tracks a smoothed 5-bar signal and derives a HealthLabel from an
// additive scoring of the latest sample.
type Quality struct {
	smoothed float64 // 0..1, exponentially smoothed
}

// Observe folds one sample into the smoothed signal (smoothing factor
// 0.35: smoothed = 0.35*new + 0.65*old) and returns the bar count (0-5)
// and health label for this sample.
func (q *Quality) Observe(s QualitySample) (bars int, health HealthLabel) {
	sampleScore := 1.0
	if s.JitterMs > 20 {
		sampleScore -= 0.2
	}
	if s.LatencyMs > 250 {
		sampleScore -= 0.2
	}
	if s.PacketLossPct > 1 {
		sampleScore -= 0.2
	}
	if s.ASRConfidence > 0 && s.ASRConfidence < 0.6 {
		sampleScore -= 0.2
	}
	if s.ErrorKeyword {
		sampleScore -= 0.2
	}
	if sampleScore < 0 {
		sampleScore = 0
	}

	if q.smoothed == 0 {
		q.smoothed = sampleScore
	} else {
		q.smoothed = smoothingFactor*sampleScore + (1-smoothingFactor)*q.smoothed
	}

	bars = int(q.smoothed*5 + 0.5)
	if bars > 5 {
		bars = 5
	}

	deficits := 0
	if s.JitterMs > 20 {
		deficits++
	}
	if s.LatencyMs > 250 {
		deficits++
	}
	if s.PacketLossPct > 1 {
		deficits++
	}
	if s.ASRConfidence > 0 && s.ASRConfidence < 0.6 {
		deficits++
	}
	if s.ErrorKeyword {
		deficits++
	}
	switch {
	case deficits == 0:
		health = HealthStable
	case deficits == 1:
		health = HealthDegraded
	case deficits == 2:
		health = HealthAtRisk
	default:
		health = HealthCritical
	}
	return bars, health
}

// Highlights is a bounded, de-duplicated ring of recent event lines.
type Highlights struct {
	inbound bool
	lines   []string
}

// NewHighlights returns a Highlights ring sized 4 for outbound calls, 3
// for inbound.
func NewHighlights(inbound bool) *Highlights {
	return &Highlights{inbound: inbound}
}

func (h *Highlights) max() int {
	if h.inbound {
		return highlightsMaxInbound
	}
	return highlightsMaxAll
}

// Push appends line, skipping it if identical to the most recent line,
// and trims the ring to its max length.
func (h *Highlights) Push(line string) {
	if len(h.lines) > 0 && h.lines[len(h.lines)-1] == line {
		return
	}
	h.lines = append(h.lines, line)
	if len(h.lines) > h.max() {
		h.lines = h.lines[len(h.lines)-h.max():]
	}
}

// Lines returns the current ring contents, oldest first.
func (h *Highlights) Lines() []string { return h.lines }

// Preview truncates text to previewMaxChars and, if redact is set,
// replaces digit runs of length >= 4 with bullet-masked text and
// email-like tokens with a generic redaction.
func Preview(text string, redact bool) string {
	if redact {
		text = redactDigitRuns(text)
		text = redactEmails(text)
	}
	runes := []rune(text)
	if len(runes) > previewMaxChars {
		return string(runes[:previewMaxChars])
	}
	return text
}

func redactDigitRuns(text string) string {
	var b strings.Builder
	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		if end-runStart >= 4 {
			b.WriteString("••••")
		} else {
			b.WriteString(text[runStart:end])
		}
		runStart = -1
	}
	for i, c := range text {
		if c >= '0' && c <= '9' {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
		b.WriteRune(c)
	}
	flush(len(text))
	return b.String()
}

func redactEmails(text string) string {
	var out []string
	for _, word := range strings.Fields(text) {
		if strings.Contains(word, "@") && strings.Contains(word, ".") {
			out = append(out, "••@••")
			continue
		}
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

// WorkingLock reports whether a user-triggered action that began at
// startedAt is still within the at-most-1.5s "Working…" window.
func WorkingLock(startedAt, now time.Time) bool {
	return now.Sub(startedAt) < workingLockMax
}
