package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"thermogo/internal/protocol"
)

// Sample is one stored (channel, field) measurement.
type Sample struct {
	Channel      int
	InstrumentMS float64
	ReceivedAt   time.Time
	Field        string
	Value        float64
}

// SampleRepo records telemetry history in sqlite.
type SampleRepo struct {
	db *sql.DB
}

func NewSampleRepo(db *sql.DB) *SampleRepo {
	return &SampleRepo{db: db}
}

// RecordTelemetry stores every numeric field of one record in a
// single transaction.
func (r *SampleRepo) RecordTelemetry(ctx context.Context, rec protocol.TelemetryRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sample tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples(channel, instrument_ms, received_at, field, value)
		VALUES(?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	receivedAt := toUnixMillis(time.Now())
	for field, raw := range rec.Fields {
		if field == "channel" || field == "time" {
			continue
		}
		value, ok := raw.(float64)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rec.Channel, rec.Time, receivedAt, field, value); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sample tx: %w", err)
	}

	return nil
}

// ListRange returns samples received inside [from, to), ordered by
// instrument clock.
func (r *SampleRepo) ListRange(ctx context.Context, from, to time.Time) ([]Sample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel, instrument_ms, received_at, field, value
		FROM samples
		WHERE received_at >= ? AND received_at < ?
		ORDER BY instrument_ms, channel, field
	`, toUnixMillis(from), toUnixMillis(to))
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Sample
	for rows.Next() {
		var s Sample
		var receivedAt int64
		if err := rows.Scan(&s.Channel, &s.InstrumentMS, &receivedAt, &s.Field, &s.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.ReceivedAt = fromUnixMillis(receivedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return out, nil
}

// DeleteOlderThan removes samples received before the cutoff and
// returns how many were dropped.
func (r *SampleRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE received_at < ?`, toUnixMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted samples: %w", err)
	}

	return n, nil
}

func toUnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

func fromUnixMillis(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(v)
}
