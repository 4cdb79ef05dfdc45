// Package chat defines the Provider interface for the operator chat
// platform that hosts each call's live console message.
//
// All edit-shaped operations are idempotent by (chatID, messageID): a
// provider must treat resending identical content as a no-op rather than
// an error, since the console renderer's debounce-collapsed edits and
// retry-on-transient-failure logic will occasionally replay one.
package chat

import "context"

// Markup is the provider-opaque representation of a message's inline
// keyboard or action buttons. Each chat.Provider implementation defines
// its own concrete markup shape and type-asserts it internally.
type Markup any

// Provider is the abstraction over any operator chat backend (e.g.,
// Telegram, Slack, a generic webhook relay).
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// SendMessage posts a new message to chatID and returns the
	// provider-assigned message id, used by later EditMessage calls.
	SendMessage(ctx context.Context, chatID, text string, markup Markup) (messageID string, err error)

	// EditMessage replaces the text and markup of an existing message.
	// A 4xx "message not modified" response from the provider is treated
	// as a successful no-op, not an error.
	EditMessage(ctx context.Context, chatID, messageID, text string, markup Markup) error

	// AnswerCallback acknowledges an inline-button callback identified by
	// callbackID, optionally showing text to the operator who pressed it.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// SendAudio posts an audio clip (e.g., a recorded call snippet) to
	// chatID and returns the provider-assigned message id.
	SendAudio(ctx context.Context, chatID string, audio []byte, caption string) (messageID string, err error)
}
