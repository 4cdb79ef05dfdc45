// Package console renders, debounces, and edits a single chat message per
// call reflecting its current state — an idempotent single-bubble UX
// analogous to a live dashboard, but debounced by earliest-edit-after-
// window rather than a fixed polling tick.
package console

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const defaultDebounceMs = 700

// Sender posts and edits one chat message. ChatID/MessageID are opaque
// strings from the owning chat provider.
type Sender interface {
	Send(ctx context.Context, chatID, text string, markup Markup) (messageID string, err error)
	Edit(ctx context.Context, chatID, messageID, text string, markup Markup) error
}

// Markup is an opaque inline-button layout, compared by value for no-op
// suppression.
type Markup struct {
	ActionsExpanded bool
	Working         bool
	Buttons         []string
}

// Entry is one call's live console state: identity, chat linkage, and the
// content last rendered and sent.
type Entry struct {
	ChatID    string
	MessageID string
	CreatedAt time.Time
	LastEdit  time.Time

	lastText   string
	lastMarkup Markup
}

// Renderer owns the debounce timer and content cache for one call's
// Entry. Not safe for concurrent use without external serialization
// (the orchestrator's per-call console lock provides that).
type Renderer struct {
	sender     Sender
	debounceMs int

	entry *Entry

	mu      sync.Mutex
	timer   *time.Timer
	pending *renderRequest
}

type renderRequest struct {
	text   string
	markup Markup
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDebounce overrides the default 700ms debounce window.
func WithDebounce(ms int) Option {
	return func(r *Renderer) { r.debounceMs = ms }
}

// New constructs a Renderer bound to sender.
func New(sender Sender, opts ...Option) *Renderer {
	r := &Renderer{sender: sender, debounceMs: defaultDebounceMs}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure creates the Entry's message if it does not exist yet, posting
// text/markup immediately (the first post is never debounced).
func (r *Renderer) Ensure(ctx context.Context, chatID, text string, markup Markup, now time.Time) error {
	if r.entry != nil && r.entry.MessageID != "" {
		return nil
	}
	id, err := r.sender.Send(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	r.entry = &Entry{ChatID: chatID, MessageID: id, CreatedAt: now, LastEdit: now, lastText: text, lastMarkup: markup}
	return nil
}

// Update schedules an edit of the existing Entry. If force is set, the
// debounce is bypassed and the edit fires immediately — used for
// state-terminal edits. The earliest edit after the debounce window wins;
// additional Update calls within the window coalesce into a single edit
// fired at window end. No-op edits (identical text and markup to the last
// sent) are suppressed entirely.
func (r *Renderer) Update(ctx context.Context, text string, markup Markup, force bool, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entry == nil || r.entry.MessageID == "" {
		return
	}
	last := r.entry.lastMarkup
	if text == r.entry.lastText && markup.ActionsExpanded == last.ActionsExpanded &&
		markup.Working == last.Working && slices.Equal(markup.Buttons, last.Buttons) {
		return
	}

	r.pending = &renderRequest{text: text, markup: markup}

	if force {
		r.fireLocked(ctx, now)
		return
	}
	if r.timer != nil {
		return // a debounce window is already running; it will pick up r.pending
	}
	r.timer = time.AfterFunc(time.Duration(r.debounceMs)*time.Millisecond, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.fireLocked(ctx, time.Now())
	})
}

// fireLocked sends the pending edit. Caller must hold r.mu.
func (r *Renderer) fireLocked(ctx context.Context, now time.Time) {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	req := r.pending
	r.pending = nil
	if req == nil {
		return
	}
	if err := r.sender.Edit(ctx, r.entry.ChatID, r.entry.MessageID, req.text, req.markup); err != nil {
		slog.Error("console: edit failed", "message_id", r.entry.MessageID, "error", err)
		return
	}
	r.entry.lastText = req.text
	r.entry.lastMarkup = req.markup
	r.entry.LastEdit = now
}

// Entry exposes the renderer's immutable-message-id Entry, or nil before
// the first Ensure call.
func (r *Renderer) Entry() *Entry { return r.entry }
