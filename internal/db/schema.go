package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS daily_activity (
		user_id        TEXT NOT NULL,
		activity_date  DATE NOT NULL,
		steps          BIGINT NOT NULL DEFAULT 0,
		distance_m     BIGINT NOT NULL DEFAULT 0,
		calories       BIGINT NOT NULL DEFAULT 0,
		active_minutes BIGINT NOT NULL DEFAULT 0,
		synced_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, activity_date)
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id          UUID PRIMARY KEY,
		user_id     TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		ended_at    TIMESTAMPTZ NOT NULL,
		distance_m  BIGINT NOT NULL,
		duration_s  BIGINT NOT NULL,
		points      JSONB NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS routes_user_started_idx ON routes (user_id, started_at)`,
}

// EnsureSchema creates the activity tables when they are missing.
func EnsureSchema(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
