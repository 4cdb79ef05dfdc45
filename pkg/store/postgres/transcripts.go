package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxorbit/callorbit/pkg/store"
)

// TranscriptStore is the transcripts-table repository. Obtain one via
// [Store.Transcripts] rather than constructing directly.
type TranscriptStore struct {
	pool *pgxpool.Pool
}

// Append implements [store.TranscriptRepository].
func (s *TranscriptStore) Append(ctx context.Context, row store.TranscriptRow) error {
	adaptation, err := json.Marshal(row.Adaptation)
	if err != nil {
		return fmt.Errorf("transcript store: marshal adaptation: %w", err)
	}

	const q = `
		INSERT INTO transcripts
		    (call_id, speaker, message, interaction_count, personality, adaptation, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.pool.Exec(ctx, q,
		row.CallID, string(row.Speaker), row.Message, row.InteractionCount,
		row.Personality, adaptation, recordedAtOrNow(row.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("transcript store: append: %w", err)
	}
	return nil
}

// Recent implements [store.TranscriptRepository]. It returns every row
// for callID recorded within the last since, ordered chronologically.
func (s *TranscriptStore) Recent(ctx context.Context, callID string, since time.Duration) ([]store.TranscriptRow, error) {
	const q = `
		SELECT call_id, speaker, message, interaction_count, personality, adaptation, recorded_at
		FROM   transcripts
		WHERE  call_id = $1
		  AND  recorded_at >= now() - ($2::bigint * interval '1 microsecond')
		ORDER  BY recorded_at`

	rows, err := s.pool.Query(ctx, q, callID, since.Microseconds())
	if err != nil {
		return nil, fmt.Errorf("transcript store: recent: %w", err)
	}
	return collectTranscripts(rows)
}

func collectTranscripts(rows pgx.Rows) ([]store.TranscriptRow, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.TranscriptRow, error) {
		var (
			r          store.TranscriptRow
			speaker    string
			adaptation []byte
		)
		if err := row.Scan(
			&r.CallID, &speaker, &r.Message, &r.InteractionCount,
			&r.Personality, &adaptation, &r.RecordedAt,
		); err != nil {
			return store.TranscriptRow{}, err
		}
		r.Speaker = store.Speaker(speaker)
		if len(adaptation) > 0 {
			if err := json.Unmarshal(adaptation, &r.Adaptation); err != nil {
				return store.TranscriptRow{}, fmt.Errorf("unmarshal adaptation: %w", err)
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("transcript store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []store.TranscriptRow{}
	}
	return entries, nil
}

func recordedAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
