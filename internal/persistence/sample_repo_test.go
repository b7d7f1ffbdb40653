package persistence

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"thermogo/internal/protocol"
)

func openTestDB(t *testing.T) *SampleRepo {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewSampleRepo(db)
}

func TestSampleRepoRecordAndListRange(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	rec := protocol.TelemetryRecord{
		Channel: 0,
		Time:    2500,
		Fields: map[string]any{
			"channel":     float64(0),
			"time":        float64(2500),
			"temperature": 36.5,
			"i_set":       2.06,
			"pid_engaged": true,
		},
	}
	if err := repo.RecordTelemetry(ctx, rec); err != nil {
		t.Fatalf("record telemetry: %v", err)
	}

	samples, err := repo.ListRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("list samples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 numeric samples (tags and booleans skipped), got %d", len(samples))
	}
	for _, s := range samples {
		if s.InstrumentMS != 2500 {
			t.Fatalf("expected instrument time 2500, got %v", s.InstrumentMS)
		}
		if s.Field != "temperature" && s.Field != "i_set" {
			t.Fatalf("unexpected stored field %q", s.Field)
		}
	}
}

func TestSampleRepoDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	rec := protocol.TelemetryRecord{
		Channel: 0,
		Time:    100,
		Fields:  map[string]any{"temperature": 36.5},
	}
	if err := repo.RecordTelemetry(ctx, rec); err != nil {
		t.Fatalf("record telemetry: %v", err)
	}

	n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete before retention cutoff: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected fresh samples kept, deleted %d", n)
	}

	n, err = repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete after cutoff: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one sample deleted, got %d", n)
	}
}

func TestExportCSVPivotsByChannelAndField(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	records := []protocol.TelemetryRecord{
		{Channel: 0, Time: 1000, Fields: map[string]any{"temperature": 36.5, "i_set": 2.0}},
		{Channel: 1, Time: 1000, Fields: map[string]any{"temperature": 40.1, "i_set": 1.5}},
		{Channel: 0, Time: 2000, Fields: map[string]any{"temperature": 36.6}},
	}
	for _, rec := range records {
		if err := repo.RecordTelemetry(ctx, rec); err != nil {
			t.Fatalf("record telemetry: %v", err)
		}
	}

	var out bytes.Buffer
	from := time.Now().Add(-time.Minute)
	to := time.Now().Add(time.Minute)
	if err := repo.ExportCSV(ctx, &out, from, to, []string{"temperature", "i_set"}, 2); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d: %q", len(rows), rows)
	}
	if rows[0] != "time,temperature_0,i_set_0,temperature_1,i_set_1" {
		t.Fatalf("unexpected header: %q", rows[0])
	}
	if rows[1] != "1.000,36.5,2,40.1,1.5" {
		t.Fatalf("unexpected first row: %q", rows[1])
	}
	if rows[2] != "2.000,36.6,,," {
		t.Fatalf("expected empty cells for missing samples, got %q", rows[2])
	}
}
