package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/pkg/store"
	"github.com/voxorbit/callorbit/pkg/telephony"
)

// CallStore is the calls-table repository. Obtain one via [Store.Calls]
// rather than constructing directly.
type CallStore struct {
	pool *pgxpool.Pool
}

// Upsert implements [store.CallRepository]. It inserts a new call row or
// overwrites every column of an existing one, keyed by call id.
func (s *CallStore) Upsert(ctx context.Context, row store.CallRow) error {
	const q = `
		INSERT INTO calls
		    (call_id, phone, prompt, first_message, chat_owner,
		     started_at, answered_at, ended_at, duration_ns,
		     status, error_code, error_message, summary,
		     last_otp_masked, digit_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (call_id) DO UPDATE SET
		    phone           = EXCLUDED.phone,
		    prompt          = EXCLUDED.prompt,
		    first_message   = EXCLUDED.first_message,
		    chat_owner      = EXCLUDED.chat_owner,
		    started_at      = EXCLUDED.started_at,
		    answered_at     = EXCLUDED.answered_at,
		    ended_at        = EXCLUDED.ended_at,
		    duration_ns     = EXCLUDED.duration_ns,
		    status          = EXCLUDED.status,
		    error_code      = EXCLUDED.error_code,
		    error_message   = EXCLUDED.error_message,
		    summary         = EXCLUDED.summary,
		    last_otp_masked = EXCLUDED.last_otp_masked,
		    digit_summary   = EXCLUDED.digit_summary`

	_, err := s.pool.Exec(ctx, q,
		row.CallID, row.Phone, row.Prompt, row.FirstMessage, row.ChatOwner,
		nullableTime(row.StartedAt), nullableTime(row.AnsweredAt), nullableTime(row.EndedAt),
		row.Duration.Nanoseconds(),
		string(row.Status), row.ErrorCode, row.ErrorMessage, row.Summary,
		row.LastOTPMasked, row.DigitSummary,
	)
	if err != nil {
		return fmt.Errorf("call store: upsert: %w", err)
	}
	return nil
}

// Get implements [store.CallRepository].
func (s *CallStore) Get(ctx context.Context, callID string) (store.CallRow, error) {
	const q = `
		SELECT call_id, phone, prompt, first_message, chat_owner,
		       started_at, answered_at, ended_at, duration_ns,
		       status, error_code, error_message, summary,
		       last_otp_masked, digit_summary
		FROM   calls
		WHERE  call_id = $1`

	var (
		row                                 store.CallRow
		started, answered, ended            *time.Time
		durationNS                          int64
		status                              string
	)
	err := s.pool.QueryRow(ctx, q, callID).Scan(
		&row.CallID, &row.Phone, &row.Prompt, &row.FirstMessage, &row.ChatOwner,
		&started, &answered, &ended, &durationNS,
		&status, &row.ErrorCode, &row.ErrorMessage, &row.Summary,
		&row.LastOTPMasked, &row.DigitSummary,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return store.CallRow{}, fmt.Errorf("call store: get %s: %w", callID, errNotFound)
		}
		return store.CallRow{}, fmt.Errorf("call store: get %s: %w", callID, err)
	}

	row.Status = telephony.CallStatus(status)
	row.Duration = time.Duration(durationNS)
	if started != nil {
		row.StartedAt = *started
	}
	if answered != nil {
		row.AnsweredAt = *answered
	}
	if ended != nil {
		row.EndedAt = *ended
	}
	return row, nil
}

// nullableTime converts a zero time.Time into a nil pgx parameter so the
// column is written as SQL NULL rather than the Unix epoch.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
