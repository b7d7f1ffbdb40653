package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		channel       INTEGER NOT NULL,
		instrument_ms REAL    NOT NULL,
		received_at   INTEGER NOT NULL,
		field         TEXT    NOT NULL,
		value         REAL    NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_samples_received ON samples(received_at);`,
	`CREATE INDEX IF NOT EXISTS idx_samples_channel_field ON samples(channel, field, instrument_ms);`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema migration: %w", err)
		}
	}

	return nil
}
