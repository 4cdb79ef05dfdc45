package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/internal/notifier"
)

// NotificationStore is the notifications-table repository. Obtain one
// via [Store.Notifications] rather than constructing directly. It
// satisfies notifier.Store, so it can be passed straight into
// notifier.New.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// Save implements notifier.Store and store.NotificationRepository. It
// upserts by notification id so repeated retries of the same
// notification overwrite its prior state rather than duplicating rows.
func (s *NotificationStore) Save(ctx context.Context, n notifier.Notification) error {
	const q = `
		INSERT INTO notifications
		    (id, call_id, kind, chat_id, state, retry_count, next_attempt_at, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
		    state           = EXCLUDED.state,
		    retry_count     = EXCLUDED.retry_count,
		    next_attempt_at = EXCLUDED.next_attempt_at,
		    error_message   = EXCLUDED.error_message`

	_, err := s.pool.Exec(ctx, q,
		n.ID, n.CallID, string(n.Kind), n.ChatID, string(n.State),
		n.RetryCount, nullableTime(n.NextAttemptAt), n.ErrorMessage,
		recordedAtOrNow(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("notification store: save: %w", err)
	}
	return nil
}

// Pending implements notifier.Store and store.NotificationRepository.
// It returns every notification due for an attempt at or before now,
// ordered oldest-created first so retries preserve delivery order.
func (s *NotificationStore) Pending(ctx context.Context, now time.Time) ([]notifier.Notification, error) {
	const q = `
		SELECT id, call_id, kind, chat_id, state, retry_count, next_attempt_at, error_message, created_at
		FROM   notifications
		WHERE  state IN ('pending', 'retrying')
		  AND  (next_attempt_at IS NULL OR next_attempt_at <= $1)
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("notification store: pending: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notifier.Notification, error) {
		var (
			n             notifier.Notification
			kind, state   string
			nextAttemptAt *time.Time
		)
		if err := row.Scan(
			&n.ID, &n.CallID, &kind, &n.ChatID, &state, &n.RetryCount,
			&nextAttemptAt, &n.ErrorMessage, &n.CreatedAt,
		); err != nil {
			return notifier.Notification{}, err
		}
		n.Kind = notifier.Kind(kind)
		n.State = notifier.State(state)
		if nextAttemptAt != nil {
			n.NextAttemptAt = *nextAttemptAt
		}
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("notification store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []notifier.Notification{}
	}
	return entries, nil
}
