package app

import (
	"context"
	"testing"
	"time"

	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/pkg/provider/chat"
	"github.com/voxorbit/callorbit/pkg/store"
	"github.com/voxorbit/callorbit/pkg/telephony"
)

type fakeChat struct {
	sent []string
}

func (f *fakeChat) SendMessage(_ context.Context, _, text string, _ chat.Markup) (string, error) {
	f.sent = append(f.sent, text)
	return "msg-1", nil
}
func (f *fakeChat) EditMessage(context.Context, string, string, string, chat.Markup) error { return nil }
func (f *fakeChat) AnswerCallback(context.Context, string, string) error                   { return nil }
func (f *fakeChat) SendAudio(context.Context, string, []byte, string) (string, error)      { return "", nil }

type fakeCalls struct {
	row store.CallRow
}

func (f *fakeCalls) Upsert(context.Context, store.CallRow) error { return nil }
func (f *fakeCalls) Get(context.Context, string) (store.CallRow, error) {
	return f.row, nil
}

type fakeTranscripts struct {
	rows []store.TranscriptRow
}

func (f *fakeTranscripts) Append(context.Context, store.TranscriptRow) error { return nil }
func (f *fakeTranscripts) Recent(context.Context, string, time.Duration) ([]store.TranscriptRow, error) {
	return f.rows, nil
}

func TestChatSender_CallCompleted(t *testing.T) {
	calls := &fakeCalls{row: store.CallRow{
		CallID: "call-1", Status: telephony.StatusCompleted,
		Duration: 90 * time.Second, Summary: "identity confirmed",
	}}
	ch := &fakeChat{}
	sender := newChatSender(ch, calls, &fakeTranscripts{})

	n := notifier.NewNotification("n1", "call-1", notifier.KindCallCompleted, "chat-1", time.Now())
	if err := sender.Send(context.Background(), n); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("expected one message sent, got %d", len(ch.sent))
	}
}

func TestChatSender_Transcript_Empty(t *testing.T) {
	sender := newChatSender(&fakeChat{}, &fakeCalls{}, &fakeTranscripts{})
	n := notifier.NewNotification("n2", "call-2", notifier.KindCallTranscript, "chat-1", time.Now())
	if err := sender.Send(context.Background(), n); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestChatSender_UnknownKind(t *testing.T) {
	sender := newChatSender(&fakeChat{}, &fakeCalls{}, &fakeTranscripts{})
	n := notifier.NewNotification("n3", "call-3", notifier.Kind("bogus"), "chat-1", time.Now())
	if err := sender.Send(context.Background(), n); err == nil {
		t.Fatal("expected error for unknown notification kind")
	}
}
