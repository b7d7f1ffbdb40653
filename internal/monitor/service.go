// Package monitor runs the telemetry producer: it switches the
// connection into continuous reporting and dispatches every matching
// record into the series registry, onto the bus, and optionally into
// telemetry history.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"thermogo/internal/bus"
	"thermogo/internal/protocol"
	"thermogo/internal/series"
)

// Recorder persists telemetry history. Implemented by
// persistence.SampleRepo; nil disables recording.
type Recorder interface {
	RecordTelemetry(ctx context.Context, rec protocol.TelemetryRecord) error
}

type Service struct {
	logger   *slog.Logger
	bus      bus.MessageBus
	client   *protocol.Client
	registry *series.Registry
	recorder Recorder

	channel    int
	discardAck bool
}

func NewService(logger *slog.Logger, b bus.MessageBus, client *protocol.Client, registry *series.Registry, recorder Recorder, channel int, discardAck bool) *Service {
	return &Service{
		logger:     logger,
		bus:        b,
		client:     client,
		registry:   registry,
		recorder:   recorder,
		channel:    channel,
		discardAck: discardAck,
	}
}

// Run blocks on the telemetry stream until the connection closes, the
// context is cancelled, or the transport fails. It never reconnects;
// a clean end of stream or cancellation returns nil, a transport
// failure is logged, published, and returned.
func (s *Service) Run(ctx context.Context) error {
	s.client.Trace = func(dir, line string) {
		topic := bus.TopicRawLineIn
		if dir == "out" {
			topic = bus.TopicRawLineOut
		}
		s.bus.Publish(topic, bus.RawLine{Text: line, Len: len(line)})
	}

	stream, err := s.client.Stream(ctx, protocol.StreamOptions{
		Channel:    &s.channel,
		DiscardAck: s.discardAck,
	})
	if err != nil {
		s.publishStatus(bus.ConnectionStateDisconnected, err)
		return err
	}
	s.publishStatus(bus.ConnectionStateStreaming, nil)
	s.logger.Info("continuous reporting enabled", "channel", s.channel)

	names := s.registry.Names()
	for {
		rec, err := stream.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.logger.Info("telemetry stream closed by instrument")
			s.publishStatus(bus.ConnectionStateDisconnected, nil)
			return nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			s.publishStatus(bus.ConnectionStateDisconnected, nil)
			return nil
		default:
			s.logger.Error("telemetry stream failed", "error", err)
			s.publishStatus(bus.ConnectionStateDisconnected, err)
			return err
		}

		t := rec.Seconds()
		for _, name := range names {
			if v, ok := rec.Float(name); ok {
				s.registry.Update(name, t, v)
			}
		}
		s.bus.Publish(bus.TopicTelemetry, rec)

		if s.recorder != nil {
			if err := s.recorder.RecordTelemetry(ctx, rec); err != nil {
				s.logger.Warn("record telemetry sample", "error", err)
			}
		}
	}
}

func (s *Service) publishStatus(state bus.ConnectionState, err error) {
	status := bus.ConnectionStatus{
		State:     state,
		Timestamp: time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
	}
	s.bus.Publish(bus.TopicConnStatus, status)
}
