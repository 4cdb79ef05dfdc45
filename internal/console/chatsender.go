package console

import (
	"context"

	"github.com/voxorbit/callorbit/pkg/provider/chat"
)

// ChatSender adapts a chat.Provider to the Sender interface Renderer
// expects, translating this package's Markup into the provider's opaque
// chat.Markup.
type ChatSender struct {
	Provider chat.Provider
}

// Send implements Sender.
func (c ChatSender) Send(ctx context.Context, chatID, text string, markup Markup) (string, error) {
	return c.Provider.SendMessage(ctx, chatID, text, markup)
}

// Edit implements Sender.
func (c ChatSender) Edit(ctx context.Context, chatID, messageID, text string, markup Markup) error {
	return c.Provider.EditMessage(ctx, chatID, messageID, text, markup)
}

// Ensure ChatSender implements Sender at compile time.
var _ Sender = ChatSender{}
