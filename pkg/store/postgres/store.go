// Package postgres is a PostgreSQL-backed implementation of
// pkg/store's five repository interfaces, built on a single
// [pgxpool.Pool] shared by every sub-repository.
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
//
//	_ = st.Calls().Upsert(ctx, row)
//	_ = st.Transcripts().Append(ctx, row)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/pkg/store"
)

// Compile-time interface checks. CallStore and TranscriptStore both
// satisfy store's respective interfaces directly; NotificationStore also
// satisfies notifier.Store so it can be handed straight to a Dispatcher.
var (
	_ store.CallRepository         = (*CallStore)(nil)
	_ store.TranscriptRepository   = (*TranscriptStore)(nil)
	_ store.CallStateRepository    = (*CallStateStore)(nil)
	_ store.DigitEventRepository   = (*DigitEventStore)(nil)
	_ store.NotificationRepository = (*NotificationStore)(nil)
)

// Store is the central PostgreSQL-backed persistence layer for
// callorbit. It holds a single connection pool and exposes one
// sub-repository per persisted row shape.
type Store struct {
	pool          *pgxpool.Pool
	calls         *CallStore
	transcripts   *TranscriptStore
	callStates    *CallStateStore
	digitEvents   *DigitEventStore
	notifications *NotificationStore
}

// NewStore establishes a connection pool to the PostgreSQL database at
// dsn and runs [Migrate] to ensure all required tables exist.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{
		pool:          pool,
		calls:         &CallStore{pool: pool},
		transcripts:   &TranscriptStore{pool: pool},
		callStates:    &CallStateStore{pool: pool},
		digitEvents:   &DigitEventStore{pool: pool},
		notifications: &NotificationStore{pool: pool},
	}, nil
}

// Calls returns the call-row repository.
func (s *Store) Calls() *CallStore { return s.calls }

// Transcripts returns the transcript-row repository.
func (s *Store) Transcripts() *TranscriptStore { return s.transcripts }

// CallStates returns the call-state event repository.
func (s *Store) CallStates() *CallStateStore { return s.callStates }

// DigitEvents returns the digit-event repository.
func (s *Store) DigitEvents() *DigitEventStore { return s.digitEvents }

// Notifications returns the notification repository. It satisfies
// notifier.Store directly.
func (s *Store) Notifications() *NotificationStore { return s.notifications }

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the underlying connection pool can still reach the
// database, for use by a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
