package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voxorbit/callorbit/internal/callsession"
	"github.com/voxorbit/callorbit/internal/console"
	"github.com/voxorbit/callorbit/internal/digitengine"
	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/internal/observe"
	"github.com/voxorbit/callorbit/pkg/provider/tts"
	"github.com/voxorbit/callorbit/pkg/store"
	"github.com/voxorbit/callorbit/pkg/telephony"
	"github.com/voxorbit/callorbit/pkg/types"
)

// ttsAdapter implements callsession.Synthesizer over a tts.Provider. The
// synthesized audio is handed to out, the call's media-stream sink; a
// deployment without a wired transport may pass a sink that discards
// frames.
type ttsAdapter struct {
	provider tts.Provider
	voice    types.VoiceProfile
	out      func(frame []byte)
	metrics  *observe.Metrics
}

func newTTSAdapter(provider tts.Provider, voice types.VoiceProfile, out func([]byte), metrics *observe.Metrics) *ttsAdapter {
	if out == nil {
		out = func([]byte) {}
	}
	return &ttsAdapter{provider: provider, voice: voice, out: out, metrics: metrics}
}

// Speak implements callsession.Synthesizer.
func (a *ttsAdapter) Speak(ctx context.Context, callID, text string) error {
	fragments := make(chan string, 1)
	fragments <- text
	close(fragments)

	start := time.Now()
	audio, err := a.provider.SynthesizeStream(ctx, fragments, a.voice)
	if err != nil {
		return fmt.Errorf("tts: synthesize for call %s: %w", callID, err)
	}
	for frame := range audio {
		a.out(frame)
	}
	if a.metrics != nil {
		a.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	}
	return ctx.Err()
}

// telephonyAdapter implements callsession.Telephony by recording the
// call's end in the persistence layer; the actual signal to the
// telephony provider's hangup endpoint is issued by the transport layer
// that owns the live connection, outside this module's boundary.
type telephonyAdapter struct {
	calls store.CallRepository
}

func newTelephonyAdapter(calls store.CallRepository) *telephonyAdapter {
	return &telephonyAdapter{calls: calls}
}

// Hangup implements callsession.Telephony.
func (a *telephonyAdapter) Hangup(ctx context.Context, callID string) error {
	row, err := a.calls.Get(ctx, callID)
	if err != nil {
		return err
	}
	row.EndedAt = time.Now()
	row.Status = telephony.StatusCompleted
	if !row.AnsweredAt.IsZero() {
		row.Duration = row.EndedAt.Sub(row.AnsweredAt)
	}
	return a.calls.Upsert(ctx, row)
}

// statusReporter implements callsession.TerminalReporter: it persists the
// call's terminal status, enqueues the completion and transcript
// notifications, and marks the terminal-status gate so the notifier's
// transcript-kind delivery is no longer held back.
type statusReporter struct {
	calls         store.CallRepository
	notifications store.NotificationRepository
	gate          *notifier.MemoryGate
	chatID        string
}

func newStatusReporter(calls store.CallRepository, notifications store.NotificationRepository, gate *notifier.MemoryGate, chatID string) *statusReporter {
	return &statusReporter{calls: calls, notifications: notifications, gate: gate, chatID: chatID}
}

// ReportTerminal implements callsession.TerminalReporter.
func (r *statusReporter) ReportTerminal(ctx context.Context, callID string, reason callsession.ClosingReason) error {
	now := time.Now()
	row, err := r.calls.Get(ctx, callID)
	if err != nil {
		return err
	}
	row.EndedAt = now
	row.Status = telephony.StatusCompleted
	row.ErrorMessage = string(reason)
	if err := r.calls.Upsert(ctx, row); err != nil {
		return err
	}

	r.gate.MarkSent(callID)

	completed := notifier.NewNotification(callID+"-completed-"+fmt.Sprint(now.UnixNano()), callID, notifier.KindCallCompleted, r.chatID, now)
	if err := r.notifications.Save(ctx, completed); err != nil {
		return err
	}
	transcript := notifier.NewNotification(callID+"-transcript-"+fmt.Sprint(now.UnixNano()), callID, notifier.KindCallTranscript, r.chatID, now)
	return r.notifications.Save(ctx, transcript)
}

// consoleAdapter implements callsession.ConsoleNotifier over a console
// Renderer already bound to one call's chat message.
type consoleAdapter struct {
	renderer *console.Renderer
}

func newConsoleAdapter(renderer *console.Renderer) *consoleAdapter {
	return &consoleAdapter{renderer: renderer}
}

// Notify implements callsession.ConsoleNotifier.
func (a *consoleAdapter) Notify(callID, event string) {
	if a.renderer == nil {
		return
	}
	a.renderer.Update(context.Background(), event, console.Markup{}, false, time.Now())
}

// transcriptRecorder implements callsession.TranscriptRecorder over a
// store.TranscriptRepository, attributing every recorded line to the AI
// speaker: the only line a Session records today is its own closing
// remark.
type transcriptRecorder struct {
	transcripts store.TranscriptRepository
}

func newTranscriptRecorder(transcripts store.TranscriptRepository) *transcriptRecorder {
	return &transcriptRecorder{transcripts: transcripts}
}

// RecordFinal implements callsession.TranscriptRecorder.
func (r *transcriptRecorder) RecordFinal(ctx context.Context, callID, kind, text string) error {
	return r.transcripts.Append(ctx, store.TranscriptRow{
		CallID: callID, Speaker: store.SpeakerAI, Message: text,
		Personality: kind, RecordedAt: time.Now(),
	})
}

// staticHealthProvider reports a fixed digitengine.HealthStatus, used until
// a deployment wires a real load signal.
type staticHealthProvider struct{ status digitengine.HealthStatus }

func (p staticHealthProvider) Health() digitengine.HealthStatus { return p.status }

// staticRiskProvider reports a fixed risk score for every call, used until
// a deployment wires a fraud-scoring model.
type staticRiskProvider struct{ score float64 }

func (p staticRiskProvider) Risk(string) float64 { return p.score }
