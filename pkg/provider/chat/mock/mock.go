// Package mock provides a test double for the chat.Provider interface.
package mock

import (
	"context"
	"strconv"
	"sync"

	"github.com/voxorbit/callorbit/pkg/provider/chat"
)

// SentMessage records one SendMessage or SendAudio call.
type SentMessage struct {
	ChatID string
	Text   string
	Markup chat.Markup
	Audio  []byte
}

// EditedMessage records one EditMessage call.
type EditedMessage struct {
	ChatID    string
	MessageID string
	Text      string
	Markup    chat.Markup
}

// Provider is a mock implementation of chat.Provider. Message ids are
// assigned sequentially starting at 1.
type Provider struct {
	mu sync.Mutex

	// SendErr, if non-nil, is returned as the error from SendMessage.
	SendErr error

	// EditErr, if non-nil, is returned as the error from EditMessage.
	EditErr error

	// AnswerErr, if non-nil, is returned as the error from AnswerCallback.
	AnswerErr error

	nextID int

	Sent              []SentMessage
	Edited            []EditedMessage
	CallbacksAnswered []string
}

// SendMessage records the call and returns a new sequential message id.
func (p *Provider) SendMessage(ctx context.Context, chatID, text string, markup chat.Markup) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return "", p.SendErr
	}
	p.nextID++
	id := strconv.Itoa(p.nextID)
	p.Sent = append(p.Sent, SentMessage{ChatID: chatID, Text: text, Markup: markup})
	return id, nil
}

// EditMessage records the call.
func (p *Provider) EditMessage(ctx context.Context, chatID, messageID, text string, markup chat.Markup) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.EditErr != nil {
		return p.EditErr
	}
	p.Edited = append(p.Edited, EditedMessage{ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
	return nil
}

// AnswerCallback records the call.
func (p *Provider) AnswerCallback(ctx context.Context, callbackID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AnswerErr != nil {
		return p.AnswerErr
	}
	p.CallbacksAnswered = append(p.CallbacksAnswered, callbackID)
	return nil
}

// SendAudio records the call and returns a new sequential message id.
func (p *Provider) SendAudio(ctx context.Context, chatID string, audio []byte, caption string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return "", p.SendErr
	}
	p.nextID++
	id := strconv.Itoa(p.nextID)
	p.Sent = append(p.Sent, SentMessage{ChatID: chatID, Text: caption, Audio: audio})
	return id, nil
}

// Ensure Provider implements chat.Provider at compile time.
var _ chat.Provider = (*Provider)(nil)
