package console

import (
	"context"
	"testing"

	chatmock "github.com/voxorbit/callorbit/pkg/provider/chat/mock"
)

func TestChatSenderSendAndEdit(t *testing.T) {
	p := &chatmock.Provider{}
	sender := ChatSender{Provider: p}

	id, err := sender.Send(context.Background(), "chat-1", "hello", Markup{Buttons: []string{"End"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(p.Sent))
	}

	if err := sender.Edit(context.Background(), "chat-1", id, "updated", Markup{Working: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Edited) != 1 || p.Edited[0].Text != "updated" {
		t.Fatalf("unexpected edited record: %+v", p.Edited)
	}
}
