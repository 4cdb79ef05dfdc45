package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlCalls = `
CREATE TABLE IF NOT EXISTS calls (
    call_id        TEXT         PRIMARY KEY,
    phone          TEXT         NOT NULL DEFAULT '',
    prompt         TEXT         NOT NULL DEFAULT '',
    first_message  TEXT         NOT NULL DEFAULT '',
    chat_owner     TEXT         NOT NULL DEFAULT '',
    started_at     TIMESTAMPTZ,
    answered_at    TIMESTAMPTZ,
    ended_at       TIMESTAMPTZ,
    duration_ns    BIGINT       NOT NULL DEFAULT 0,
    status         TEXT         NOT NULL DEFAULT '',
    error_code     TEXT         NOT NULL DEFAULT '',
    error_message  TEXT         NOT NULL DEFAULT '',
    summary        TEXT         NOT NULL DEFAULT '',
    last_otp_masked TEXT        NOT NULL DEFAULT '',
    digit_summary  TEXT         NOT NULL DEFAULT ''
);
`

const ddlTranscripts = `
CREATE TABLE IF NOT EXISTS transcripts (
    id                BIGSERIAL    PRIMARY KEY,
    call_id           TEXT         NOT NULL REFERENCES calls (call_id) ON DELETE CASCADE,
    speaker           TEXT         NOT NULL,
    message           TEXT         NOT NULL,
    interaction_count INT          NOT NULL DEFAULT 0,
    personality       TEXT         NOT NULL DEFAULT '',
    adaptation        JSONB        NOT NULL DEFAULT '{}',
    recorded_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transcripts_call_id ON transcripts (call_id);
CREATE INDEX IF NOT EXISTS idx_transcripts_call_recorded ON transcripts (call_id, recorded_at);
`

const ddlCallStates = `
CREATE TABLE IF NOT EXISTS call_states (
    id          BIGSERIAL    PRIMARY KEY,
    call_id     TEXT         NOT NULL REFERENCES calls (call_id) ON DELETE CASCADE,
    event       TEXT         NOT NULL,
    payload     JSONB        NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_call_states_call_id ON call_states (call_id);
`

const ddlDigitEvents = `
CREATE TABLE IF NOT EXISTS digit_events (
    id          BIGSERIAL    PRIMARY KEY,
    call_id     TEXT         NOT NULL REFERENCES calls (call_id) ON DELETE CASCADE,
    source      TEXT         NOT NULL DEFAULT '',
    profile     TEXT         NOT NULL DEFAULT '',
    digits      TEXT         NOT NULL DEFAULT '',
    length      INT          NOT NULL DEFAULT 0,
    accepted    BOOLEAN      NOT NULL DEFAULT false,
    reason      TEXT         NOT NULL DEFAULT '',
    confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_digit_events_call_id ON digit_events (call_id);
`

const ddlNotifications = `
CREATE TABLE IF NOT EXISTS notifications (
    id              TEXT         PRIMARY KEY,
    call_id         TEXT         NOT NULL DEFAULT '',
    kind            TEXT         NOT NULL DEFAULT '',
    chat_id         TEXT         NOT NULL DEFAULT '',
    state           TEXT         NOT NULL DEFAULT '',
    retry_count     INT          NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ,
    error_message   TEXT         NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_state_next_attempt
    ON notifications (state, next_attempt_at);
`

// Migrate creates or ensures all required tables and indexes exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlCalls,
		ddlTranscripts,
		ddlCallStates,
		ddlDigitEvents,
		ddlNotifications,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
