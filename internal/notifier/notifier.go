// Package notifier implements a durable FIFO dispatcher for outgoing
// operator notifications with per-kind retry semantics and exponential
// backoff.
package notifier

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Kind names a notification's content type.
type Kind string

// Well-known notification kinds.
const (
	KindCallCompleted  Kind = "call_completed"
	KindCallTranscript Kind = "call_transcript"
	KindStatusUpdate   Kind = "status_update"
)

// State is a notification's lifecycle state.
type State string

// Notification states.
const (
	StatePending  State = "pending"
	StateSent     State = "sent"
	StateRetrying State = "retrying"
	StateFailed   State = "failed"
)

const (
	defaultProcessIntervalMs = 3000
	defaultRetryBase         = 1 * time.Second
	defaultRetryMax          = 60 * time.Second
	defaultRetryMaxAttempts  = 5
	defaultJitterCapMs       = 1000

	transcriptRetryInterval = 3 * time.Second
	transcriptRetryBudget   = 10 * time.Minute
)

// Notification is one durable, persistent outgoing message.
type Notification struct {
	ID            string
	CallID        string
	Kind          Kind
	ChatID        string
	State         State
	RetryCount    int
	NextAttemptAt time.Time
	ErrorMessage  string

	// CreatedAt anchors the transcript-kind 10-minute retry budget.
	CreatedAt time.Time
}

// NewNotification constructs a pending Notification anchored at now.
func NewNotification(id, callID string, kind Kind, chatID string, now time.Time) Notification {
	return Notification{ID: id, CallID: callID, Kind: kind, ChatID: chatID, State: StatePending, CreatedAt: now}
}

// Store persists notifications. A real deployment backs this with
// pkg/store; tests may use an in-memory stub.
type Store interface {
	Save(ctx context.Context, n Notification) error
	Pending(ctx context.Context, now time.Time) ([]Notification, error)
}

// Sender delivers one notification's rendered content to its owning chat.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// TerminalStatusSent reports whether callID's terminal status has already
// been sent to the operator, gating transcript-kind delivery.
type TerminalStatusSent interface {
	TerminalStatusSent(callID string) bool
}

// Dispatcher polls Store on a fixed interval and drives each due
// notification through Sender, retrying with exponential backoff and
// jitter until retryMaxAttempts is exhausted.
type Dispatcher struct {
	store  Store
	sender Sender
	gate   TerminalStatusSent

	processInterval time.Duration
	retryBase       time.Duration
	retryMax        time.Duration
	retryMaxAttempts int

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Option configures a Dispatcher during construction.
type Option func(*Dispatcher)

// WithProcessInterval overrides the default 3000ms poll interval.
func WithProcessInterval(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.processInterval = d }
}

// New constructs a Dispatcher. Call Start to begin polling.
func New(store Store, sender Sender, gate TerminalStatusSent, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:            store,
		sender:           sender,
		gate:             gate,
		processInterval:  defaultProcessIntervalMs * time.Millisecond,
		retryBase:        defaultRetryBase,
		retryMax:         defaultRetryMax,
		retryMaxAttempts: defaultRetryMaxAttempts,
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins the polling loop, stopping when ctx is canceled or Stop is
// called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.processInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.done:
				return
			case <-ticker.C:
				d.processDue(ctx, time.Now())
			}
		}
	}()
}

// Stop halts the polling loop and waits for it to exit.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *Dispatcher) processDue(ctx context.Context, now time.Time) {
	due, err := d.store.Pending(ctx, now)
	if err != nil {
		slog.Error("notifier: failed to load pending notifications", "error", err)
		return
	}
	for _, n := range due {
		d.attempt(ctx, n, now)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, n Notification, now time.Time) {
	if n.Kind == KindCallTranscript && d.gate != nil && !d.gate.TerminalStatusSent(n.CallID) {
		if now.Sub(n.CreatedAt) >= transcriptRetryBudget {
			n.State = StateFailed
			n.ErrorMessage = "transcript wait exceeded 10 minutes without a terminal status"
			d.persist(ctx, n)
			return
		}
		n.NextAttemptAt = now.Add(transcriptRetryInterval)
		d.persist(ctx, n)
		return
	}

	if err := d.sender.Send(ctx, n); err != nil {
		d.onFailure(ctx, n, err, now)
		return
	}
	n.State = StateSent
	n.ErrorMessage = ""
	d.persist(ctx, n)
}

func (d *Dispatcher) onFailure(ctx context.Context, n Notification, sendErr error, now time.Time) {
	n.RetryCount++
	n.ErrorMessage = sendErr.Error()
	if n.RetryCount >= d.retryMaxAttempts {
		n.State = StateFailed
		d.persist(ctx, n)
		return
	}
	n.State = StateRetrying
	n.NextAttemptAt = now.Add(backoff(d.retryBase, d.retryMax, n.RetryCount))
	d.persist(ctx, n)
}

func (d *Dispatcher) persist(ctx context.Context, n Notification) {
	if err := d.store.Save(ctx, n); err != nil {
		slog.Error("notifier: failed to persist notification", "id", n.ID, "error", err)
	}
}

// backoff computes min(retryMax, retryBase*2^attempt) plus up to 1000ms of
// jitter.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	jitter := time.Duration(rand.IntN(defaultJitterCapMs+1)) * time.Millisecond
	return d + jitter
}
