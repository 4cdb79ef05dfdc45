package app

import (
	"context"
	"fmt"
	"time"

	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/pkg/provider/chat"
	"github.com/voxorbit/callorbit/pkg/store"
)

// transcriptLookback bounds how much transcript history a call_transcript
// notification renders; older turns are omitted rather than truncated
// mid-line.
const transcriptLookback = 30 * time.Minute

// chatSender renders a [notifier.Notification] into an operator-facing chat
// message and implements [notifier.Sender]. It reads the call's persisted
// rows to produce the rendered text rather than carrying content of its
// own, so a replayed or retried notification always reflects current state.
type chatSender struct {
	chat   chat.Provider
	calls  store.CallRepository
	transcripts store.TranscriptRepository
}

// newChatSender constructs a chatSender bound to provider and the
// repositories it renders notification content from.
func newChatSender(provider chat.Provider, calls store.CallRepository, transcripts store.TranscriptRepository) *chatSender {
	return &chatSender{chat: provider, calls: calls, transcripts: transcripts}
}

// Send implements notifier.Sender.
func (s *chatSender) Send(ctx context.Context, n notifier.Notification) error {
	text, err := s.render(ctx, n)
	if err != nil {
		return fmt.Errorf("notify: render %s for call %s: %w", n.Kind, n.CallID, err)
	}
	_, err = s.chat.SendMessage(ctx, n.ChatID, text, nil)
	return err
}

func (s *chatSender) render(ctx context.Context, n notifier.Notification) (string, error) {
	switch n.Kind {
	case notifier.KindCallCompleted:
		return s.renderCallCompleted(ctx, n.CallID)
	case notifier.KindCallTranscript:
		return s.renderTranscript(ctx, n.CallID)
	case notifier.KindStatusUpdate:
		return s.renderStatusUpdate(ctx, n.CallID)
	default:
		return "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}

func (s *chatSender) renderCallCompleted(ctx context.Context, callID string) (string, error) {
	row, err := s.calls.Get(ctx, callID)
	if err != nil {
		return "", err
	}
	summary := row.Summary
	if summary == "" {
		summary = "(no summary)"
	}
	return fmt.Sprintf("Call %s completed — duration %s\nstatus: %s\n%s",
		callID, row.Duration.Round(time.Second), row.Status, summary), nil
}

func (s *chatSender) renderTranscript(ctx context.Context, callID string) (string, error) {
	rows, err := s.transcripts.Recent(ctx, callID, transcriptLookback)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Call %s — no transcript recorded", callID), nil
	}
	text := fmt.Sprintf("Call %s transcript:\n", callID)
	for _, row := range rows {
		text += fmt.Sprintf("[%s] %s\n", row.Speaker, row.Message)
	}
	return text, nil
}

func (s *chatSender) renderStatusUpdate(ctx context.Context, callID string) (string, error) {
	row, err := s.calls.Get(ctx, callID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Call %s — status: %s", callID, row.Status), nil
}
