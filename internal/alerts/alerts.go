// Package alerts watches streamed temperatures against a configured
// band and raises desktop notifications on excursions.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"thermogo/internal/bus"
	"thermogo/internal/config"
	"thermogo/internal/protocol"
)

// Sender delivers one user-facing notification.
type Sender interface {
	Send(title, body string)
}

// Watcher fires once when a channel leaves the configured band and
// once more when it recovers; it stays quiet while the excursion
// lasts.
type Watcher struct {
	logger *slog.Logger
	sender Sender
	cfg    config.AlertsConfig

	outOfRange map[int]bool
}

func NewWatcher(logger *slog.Logger, sender Sender, cfg config.AlertsConfig) *Watcher {
	return &Watcher{
		logger:     logger,
		sender:     sender,
		cfg:        cfg,
		outOfRange: make(map[int]bool),
	}
}

// Run consumes telemetry from the bus until the context ends.
func (w *Watcher) Run(ctx context.Context, b bus.MessageBus) {
	sub := b.Subscribe(bus.TopicTelemetry)
	defer b.Unsubscribe(sub, bus.TopicTelemetry)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub:
			if !ok {
				return
			}
			rec, ok := msg.(protocol.TelemetryRecord)
			if !ok {
				continue
			}
			w.observe(b, rec)
		}
	}
}

func (w *Watcher) observe(b bus.MessageBus, rec protocol.TelemetryRecord) {
	temp, ok := rec.Float("temperature")
	if !ok {
		return
	}

	var alert *bus.TemperatureAlert
	switch {
	case temp > w.cfg.MaxTemperature && !w.outOfRange[rec.Channel]:
		w.outOfRange[rec.Channel] = true
		alert = &bus.TemperatureAlert{
			Kind:        bus.AlertHighTemperature,
			Channel:     rec.Channel,
			Temperature: temp,
			Limit:       w.cfg.MaxTemperature,
			At:          time.Now(),
		}
	case temp < w.cfg.MinTemperature && !w.outOfRange[rec.Channel]:
		w.outOfRange[rec.Channel] = true
		alert = &bus.TemperatureAlert{
			Kind:        bus.AlertLowTemperature,
			Channel:     rec.Channel,
			Temperature: temp,
			Limit:       w.cfg.MinTemperature,
			At:          time.Now(),
		}
	case temp >= w.cfg.MinTemperature && temp <= w.cfg.MaxTemperature && w.outOfRange[rec.Channel]:
		w.outOfRange[rec.Channel] = false
		alert = &bus.TemperatureAlert{
			Kind:        bus.AlertRecovered,
			Channel:     rec.Channel,
			Temperature: temp,
			At:          time.Now(),
		}
	}
	if alert == nil {
		return
	}

	w.logger.Warn("temperature alert",
		"kind", alert.Kind, "channel", alert.Channel,
		"temperature", alert.Temperature, "limit", alert.Limit)
	b.Publish(bus.TopicAlert, *alert)
	if w.sender != nil {
		w.sender.Send(title(*alert), body(*alert))
	}
}

func title(a bus.TemperatureAlert) string {
	switch a.Kind {
	case bus.AlertHighTemperature:
		return fmt.Sprintf("Channel %d over temperature", a.Channel)
	case bus.AlertLowTemperature:
		return fmt.Sprintf("Channel %d under temperature", a.Channel)
	default:
		return fmt.Sprintf("Channel %d temperature recovered", a.Channel)
	}
}

func body(a bus.TemperatureAlert) string {
	if a.Kind == bus.AlertRecovered {
		return fmt.Sprintf("%.2f °C is back inside the configured band", a.Temperature)
	}

	return fmt.Sprintf("%.2f °C crossed the %.2f °C limit", a.Temperature, a.Limit)
}
