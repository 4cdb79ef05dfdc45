package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/pkg/store"
)

// CallStateStore is the call_states-table repository. Obtain one via
// [Store.CallStates] rather than constructing directly.
type CallStateStore struct {
	pool *pgxpool.Pool
}

// Append implements [store.CallStateRepository].
func (s *CallStateStore) Append(ctx context.Context, row store.CallStateRow) error {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		return fmt.Errorf("call state store: marshal payload: %w", err)
	}

	const q = `
		INSERT INTO call_states (call_id, event, payload, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err = s.pool.Exec(ctx, q, row.CallID, row.Event, payload, recordedAtOrNow(row.CreatedAt))
	if err != nil {
		return fmt.Errorf("call state store: append: %w", err)
	}
	return nil
}

// ForCall implements [store.CallStateRepository]. Rows are returned in
// the order they were recorded.
func (s *CallStateStore) ForCall(ctx context.Context, callID string) ([]store.CallStateRow, error) {
	const q = `
		SELECT call_id, event, payload, created_at
		FROM   call_states
		WHERE  call_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, callID)
	if err != nil {
		return nil, fmt.Errorf("call state store: for call: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.CallStateRow, error) {
		var (
			r       store.CallStateRow
			payload []byte
		)
		if err := row.Scan(&r.CallID, &r.Event, &payload, &r.CreatedAt); err != nil {
			return store.CallStateRow{}, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &r.Payload); err != nil {
				return store.CallStateRow{}, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("call state store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []store.CallStateRow{}
	}
	return entries, nil
}
