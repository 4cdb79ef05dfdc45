package console

import (
	"fmt"
	"strings"
	"time"
)

// waveformGlyphs is indexed by level bucket (0..len-1), low to high.
var waveformGlyphs = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// WaveformGlyph maps a 0..1 audio level to one of eight bar glyphs.
func WaveformGlyph(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	idx := int(level * float64(len(waveformGlyphs)-1))
	return waveformGlyphs[idx]
}

// Identity is the caller-facing identity portion of a bubble.
type Identity struct {
	CallerLabel string
	Inbound     bool
	RouteLabel  string
	Flag        CallerFlag
}

// Timing is the elapsed-duration portion of a bubble.
type Timing struct {
	Started   time.Time
	TalkStart time.Time // zero until the call leaves a waiting phase
}

// Waiting returns elapsed waiting duration as of now, ending at TalkStart
// if talk has begun.
func (t Timing) Waiting(now time.Time) time.Duration {
	end := now
	if !t.TalkStart.IsZero() {
		end = t.TalkStart
	}
	if end.Before(t.Started) {
		return 0
	}
	return end.Sub(t.Started)
}

// Talk returns elapsed talk duration as of now, zero before talk begins.
func (t Timing) Talk(now time.Time) time.Duration {
	if t.TalkStart.IsZero() || now.Before(t.TalkStart) {
		return 0
	}
	return now.Sub(t.TalkStart)
}

// Bubble is the fully composed content for one call's console message.
type Bubble struct {
	Identity   Identity
	Status     string
	Level      float64
	Timing     Timing
	Bars       int
	Health     HealthLabel
	RTT        time.Duration
	Highlights []string
	Preview    string
	Working    bool
}

// Buttons returns this bubble's action-button set: Record/End/Transfer
// always present, Compact as a toggle, and inbound-only Answer/SMS/
// Callback/Spam controls while the call is still pending.
func (b Bubble) Buttons(gate *InboundGate) []string {
	buttons := []string{"record", "end", "transfer", "compact"}
	if b.Identity.Inbound && gate != nil && gate.State() == InboundPending {
		buttons = append(buttons, "answer", "sms", "callback", "spam_allow", "spam_block")
	}
	if b.Identity.Flag != FlagNone {
		buttons = append(buttons, "reveal")
	}
	return buttons
}

// Render produces the bubble's plain-text body. Markup/buttons are
// composed separately by the caller via Buttons.
func (b Bubble) Render(now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", WaveformGlyph(b.Level), strings.ToUpper(b.Status))
	fmt.Fprintf(&sb, "%s", b.Identity.CallerLabel)
	if b.Identity.Flag != FlagNone {
		fmt.Fprintf(&sb, " [%s]", b.Identity.Flag)
	}
	sb.WriteString("\n")
	if b.Identity.RouteLabel != "" {
		fmt.Fprintf(&sb, "via %s\n", b.Identity.RouteLabel)
	}
	fmt.Fprintf(&sb, "waiting %s  talk %s\n", b.Timing.Waiting(now).Round(time.Second), b.Timing.Talk(now).Round(time.Second))
	fmt.Fprintf(&sb, "signal %s (%s)  rtt %s\n", strings.Repeat("|", b.Bars)+strings.Repeat(".", 5-b.Bars), b.Health, b.RTT.Round(time.Millisecond))
	for _, h := range b.Highlights {
		fmt.Fprintf(&sb, "• %s\n", h)
	}
	if b.Preview != "" {
		fmt.Fprintf(&sb, "\"%s\"\n", b.Preview)
	}
	if b.Working {
		sb.WriteString("Working…\n")
	}
	return sb.String()
}
