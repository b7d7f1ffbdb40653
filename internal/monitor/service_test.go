package monitor

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"thermogo/internal/bus"
	"thermogo/internal/protocol"
	"thermogo/internal/series"
)

type scriptedTransport struct {
	chunks [][]byte
	writes []string
}

func (t *scriptedTransport) Name() string                    { return "scripted" }
func (t *scriptedTransport) Connect(_ context.Context) error { return nil }
func (t *scriptedTransport) Connected() bool                 { return true }
func (t *scriptedTransport) Close() error                    { return nil }

func (t *scriptedTransport) ReadChunk(_ context.Context) ([]byte, error) {
	if len(t.chunks) == 0 {
		return nil, io.EOF
	}
	chunk := t.chunks[0]
	t.chunks = t.chunks[1:]
	return chunk, nil
}

func (t *scriptedTransport) WriteLine(_ context.Context, line []byte) error {
	t.writes = append(t.writes, string(line))
	return nil
}

type countingRecorder struct {
	records []protocol.TelemetryRecord
}

func (r *countingRecorder) RecordTelemetry(_ context.Context, rec protocol.TelemetryRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceRunFeedsRegistryAndRecorder(t *testing.T) {
	tr := &scriptedTransport{chunks: [][]byte{
		[]byte(`{"channel":0,"time":1000,"temperature":36.5,"i_set":2.0}` + "\n"),
		[]byte(`{"channel":1,"time":1000,"temperature":40.1,"i_set":1.5}` + "\n"),
		[]byte("[INFO] firmware chatter\n"),
		[]byte(`{"channel":0,"time":2000,"temperature":36.6,"i_set":2.1}` + "\n"),
	}}

	logger := discardLogger()
	client := protocol.NewClient(logger, tr)
	registry := series.NewRegistry(map[string]*series.Buffer{
		"temperature": series.NewBuffer(nil),
		"i_set":       series.NewBuffer(nil),
	})
	recorder := &countingRecorder{}
	b := bus.New(logger)
	defer b.Close()

	svc := NewService(logger, b, client, registry, recorder, 0, false)
	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run service: %v", err)
	}

	if tr.writes[0] != "report mode on\n" {
		t.Fatalf("expected continuous mode enabled, wrote %q", tr.writes[0])
	}
	if got := registry.Len("temperature"); got != 2 {
		t.Fatalf("expected 2 temperature points for channel 0, got %d", got)
	}
	if got := registry.Len("i_set"); got != 2 {
		t.Fatalf("expected 2 i_set points, got %d", got)
	}
	if len(recorder.records) != 2 {
		t.Fatalf("expected 2 recorded samples, got %d", len(recorder.records))
	}
	if recorder.records[1].Seconds() != 2.0 {
		t.Fatalf("expected second record at 2.0 s, got %v", recorder.records[1].Seconds())
	}
}

func TestServiceRunStopsOnCancelledContext(t *testing.T) {
	tr := &scriptedTransport{}

	logger := discardLogger()
	client := protocol.NewClient(logger, tr)
	registry := series.NewRegistry(map[string]*series.Buffer{
		"temperature": series.NewBuffer(nil),
	})
	b := bus.New(logger)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(logger, b, client, registry, nil, 0, false)
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("expected cancellation to end the loop cleanly, got %v", err)
	}
}
