package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id          TEXT PRIMARY KEY,
		term        TEXT NOT NULL,
		translation TEXT NOT NULL,
		example     TEXT NOT NULL DEFAULT '',
		audio_url   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_records (
		item_id          TEXT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
		ease_factor      DOUBLE PRECISION NOT NULL,
		interval_days    INTEGER NOT NULL,
		repetition       INTEGER NOT NULL,
		last_review_date TIMESTAMPTZ,
		next_review_date TIMESTAMPTZ NOT NULL,
		total_reviews    INTEGER NOT NULL DEFAULT 0,
		correct_count    INTEGER NOT NULL DEFAULT 0,
		incorrect_count  INTEGER NOT NULL DEFAULT 0,
		forward_correct  INTEGER NOT NULL DEFAULT 0,
		forward_total    INTEGER NOT NULL DEFAULT 0,
		reverse_correct  INTEGER NOT NULL DEFAULT 0,
		reverse_total    INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS review_records_next_review_date ON review_records (next_review_date)`,
	`CREATE SEQUENCE IF NOT EXISTS event_sequence`,
	`CREATE TABLE IF NOT EXISTS review_events (
		id               BIGSERIAL PRIMARY KEY,
		sequence         BIGINT NOT NULL UNIQUE DEFAULT nextval('event_sequence'),
		timestamp        TIMESTAMPTZ NOT NULL DEFAULT now(),
		session_id       TEXT NOT NULL DEFAULT '',
		item_id          TEXT NOT NULL,
		method           TEXT NOT NULL,
		direction        TEXT NOT NULL DEFAULT '',
		rating           TEXT NOT NULL,
		effective_rating TEXT NOT NULL,
		adjusted_quality DOUBLE PRECISION NOT NULL,
		response_time_ms BIGINT NOT NULL,
		interval_after   INTEGER NOT NULL,
		ease_after       DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS review_events_item_id_sequence ON review_events (item_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id            BIGSERIAL PRIMARY KEY,
		sequence      BIGINT NOT NULL UNIQUE DEFAULT nextval('event_sequence'),
		timestamp     TIMESTAMPTZ NOT NULL DEFAULT now(),
		session_id    TEXT NOT NULL,
		action        TEXT NOT NULL,
		candidates    INTEGER NOT NULL DEFAULT 0,
		reviewed      INTEGER NOT NULL DEFAULT 0,
		correct       INTEGER NOT NULL DEFAULT 0,
		duration_secs INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS mastery_events (
		id         BIGSERIAL PRIMARY KEY,
		sequence   BIGINT NOT NULL UNIQUE DEFAULT nextval('event_sequence'),
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
		session_id TEXT NOT NULL DEFAULT '',
		item_id    TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state   TEXT NOT NULL,
		trigger    TEXT NOT NULL
	)`,
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
