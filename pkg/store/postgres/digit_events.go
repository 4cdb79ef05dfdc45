package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/pkg/store"
)

// DigitEventStore is the digit_events-table repository. Obtain one via
// [Store.DigitEvents] rather than constructing directly.
//
// It persists whatever store.DigitEventRow.Digits value the caller
// supplies; it is the caller's responsibility (internal/digitengine's
// Collection.Masked) to ensure that value is never the raw collected
// digits when compliance mode is safe.
type DigitEventStore struct {
	pool *pgxpool.Pool
}

// Append implements [store.DigitEventRepository].
func (s *DigitEventStore) Append(ctx context.Context, row store.DigitEventRow) error {
	const q = `
		INSERT INTO digit_events
		    (call_id, source, profile, digits, length, accepted, reason, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, q,
		row.CallID, row.Source, row.Profile, row.Digits, row.Length,
		row.Accepted, row.Reason, row.Confidence, recordedAtOrNow(row.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("digit event store: append: %w", err)
	}
	return nil
}

// ForCall implements [store.DigitEventRepository]. Rows are returned in
// the order they were recorded.
func (s *DigitEventStore) ForCall(ctx context.Context, callID string) ([]store.DigitEventRow, error) {
	const q = `
		SELECT call_id, source, profile, digits, length, accepted, reason, confidence, created_at
		FROM   digit_events
		WHERE  call_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, callID)
	if err != nil {
		return nil, fmt.Errorf("digit event store: for call: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.DigitEventRow, error) {
		var r store.DigitEventRow
		if err := row.Scan(
			&r.CallID, &r.Source, &r.Profile, &r.Digits, &r.Length,
			&r.Accepted, &r.Reason, &r.Confidence, &r.CreatedAt,
		); err != nil {
			return store.DigitEventRow{}, err
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("digit event store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []store.DigitEventRow{}
	}
	return entries, nil
}
