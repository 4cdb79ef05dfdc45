// Package store defines the persistence boundary for callorbit: the five
// row shapes written over a call's lifetime, and the repository interface
// each is read and written through. pkg/store/postgres provides one
// concrete implementation; the database engine itself is outside this
// package's concern.
package store

import (
	"context"
	"time"

	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/pkg/telephony"
)

// CallRow is the durable record of one call, updated as the call
// progresses and finalized at teardown.
type CallRow struct {
	CallID       string
	Phone        string
	Prompt       string
	FirstMessage string
	ChatOwner    string

	StartedAt  time.Time
	AnsweredAt time.Time
	EndedAt    time.Time
	Duration   time.Duration

	Status       telephony.CallStatus
	ErrorCode    string
	ErrorMessage string

	Summary       string
	LastOTPMasked string
	DigitSummary  string
}

// Speaker identifies who produced a TranscriptRow's message.
type Speaker string

// The two speakers a transcript row can attribute a message to.
const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// TranscriptRow is one spoken turn, persisted for replay and review.
type TranscriptRow struct {
	CallID           string
	Speaker          Speaker
	Message          string
	InteractionCount int
	Personality      string
	Adaptation       map[string]any
	RecordedAt       time.Time
}

// CallStateRow is one typed state-transition event with a free-form
// payload, persisted for audit and replay. Event names mirror the
// transitions the orchestrator fires: ai_responded, user_spoke,
// digit_collection_requested, and so on.
type CallStateRow struct {
	CallID    string
	Event     string
	Payload   map[string]any
	CreatedAt time.Time
}

// DigitEventRow is one digit-collection attempt. Digits itself is never
// the raw collected value: callers must pass the masked form under
// compliance mode safe, per the invariant that raw digits never reach a
// persisted row in that mode.
type DigitEventRow struct {
	CallID     string
	Source     string
	Profile    string
	Digits     string // masked/opaque placeholder, never raw under compliance mode safe
	Length     int
	Accepted   bool
	Reason     string
	Confidence float64
	CreatedAt  time.Time
}

// CallRepository persists and retrieves CallRow records.
type CallRepository interface {
	Upsert(ctx context.Context, row CallRow) error
	Get(ctx context.Context, callID string) (CallRow, error)
}

// TranscriptRepository persists and retrieves TranscriptRow records.
type TranscriptRepository interface {
	Append(ctx context.Context, row TranscriptRow) error
	Recent(ctx context.Context, callID string, since time.Duration) ([]TranscriptRow, error)
}

// CallStateRepository persists call-state transition events.
type CallStateRepository interface {
	Append(ctx context.Context, row CallStateRow) error
	ForCall(ctx context.Context, callID string) ([]CallStateRow, error)
}

// DigitEventRepository persists digit-collection attempt events.
type DigitEventRepository interface {
	Append(ctx context.Context, row DigitEventRow) error
	ForCall(ctx context.Context, callID string) ([]DigitEventRow, error)
}

// NotificationRepository persists outgoing operator notifications. It is
// defined to satisfy notifier.Store directly so a *postgres.Store can be
// handed straight to notifier.New without an adapter.
type NotificationRepository interface {
	Save(ctx context.Context, n notifier.Notification) error
	Pending(ctx context.Context, now time.Time) ([]notifier.Notification, error)
}
