package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"thermogo/internal/transport"
)

// DefaultChannels is the controller's control loop count; every query
// replies with one JSON line per channel.
const DefaultChannels = 2

// Client speaks the thermostat's newline-delimited text/JSON protocol
// over one connection. It supports request/response queries and, once
// Stream is called, the connection permanently switches to continuous
// telemetry.
type Client struct {
	logger   *slog.Logger
	tr       transport.Transport
	framer   LineFramer
	channels int

	// Trace, when set, observes every line crossing the wire
	// ("in"/"out"). Used for diagnostics feeds.
	Trace func(dir, line string)

	streaming bool
	eof       bool
}

type Option func(*Client)

// WithChannels overrides the controller channel count used by the
// typed queries.
func WithChannels(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.channels = n
		}
	}
}

func NewClient(logger *slog.Logger, tr transport.Transport, opts ...Option) *Client {
	c := &Client{
		logger:   logger,
		tr:       tr,
		channels: DefaultChannels,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Channels returns the configured controller channel count.
func (c *Client) Channels() int {
	return c.channels
}

// SendCommand joins tokens with single spaces, appends a newline, and
// writes the command as one atomic transport write. It never reads a
// reply; commands that define one are read explicitly by the caller.
func (c *Client) SendCommand(ctx context.Context, tokens ...string) error {
	line := strings.Join(tokens, " ")
	if err := c.tr.WriteLine(ctx, []byte(line+"\n")); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	c.logger.Debug("command sent", "line", line)
	if c.Trace != nil {
		c.Trace("out", line)
	}
	return nil
}

// readLine blocks until the framer holds a complete line, refilling it
// from the transport. A zero-length read or io.EOF from the transport
// means the peer closed the connection; that surfaces as io.EOF here,
// permanently, and never as an empty line.
func (c *Client) readLine(ctx context.Context) (string, error) {
	for {
		if line, ok := c.framer.NextLine(); ok {
			if c.Trace != nil {
				c.Trace("in", line)
			}
			return line, nil
		}
		if c.eof {
			return "", io.EOF
		}
		chunk, err := c.tr.ReadChunk(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.eof = true
				return "", io.EOF
			}
			return "", &TransportError{Op: "read", Err: err}
		}
		if len(chunk) == 0 {
			c.eof = true
			return "", io.EOF
		}
		c.framer.Feed(chunk)
	}
}

func (c *Client) queryLines(ctx context.Context, topic string, replyCount int) ([]string, error) {
	if c.streaming {
		return nil, fmt.Errorf("query %q: connection is in continuous mode", topic)
	}
	if err := c.SendCommand(ctx, topic); err != nil {
		return nil, err
	}
	lines := make([]string, 0, replyCount)
	for i := 0; i < replyCount; i++ {
		line, err := c.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return nil, &ProtocolError{Topic: topic, Want: replyCount, Got: i}
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Query sends topic as a bare command and reads exactly replyCount
// JSON reply lines, decoded in order.
func (c *Client) Query(ctx context.Context, topic string, replyCount int) ([]map[string]any, error) {
	lines, err := c.queryLines(ctx, topic, replyCount)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, &DecodeError{Line: line, Err: err}
		}
		out = append(out, obj)
	}
	return out, nil
}

func queryReports[T any](ctx context.Context, c *Client, topic string) ([]T, error) {
	lines, err := c.queryLines(ctx, topic, c.channels)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(lines))
	for _, line := range lines {
		var report T
		if err := json.Unmarshal([]byte(line), &report); err != nil {
			return nil, &DecodeError{Line: line, Err: err}
		}
		out = append(out, report)
	}
	return out, nil
}

// PWM retrieves the TEC driver limits for every channel.
func (c *Client) PWM(ctx context.Context) ([]PWMReport, error) {
	return queryReports[PWMReport](ctx, c, "pwm")
}

// PID retrieves the PID control state for every channel.
func (c *Client) PID(ctx context.Context) ([]PIDReport, error) {
	return queryReports[PIDReport](ctx, c, "pid")
}

// SteinhartHart retrieves the thermistor conversion parameters for
// every channel.
func (c *Client) SteinhartHart(ctx context.Context) ([]SteinhartHartReport, error) {
	return queryReports[SteinhartHartReport](ctx, c, "s-h")
}

// Postfilter retrieves the ADC postfilter configuration for every
// channel.
func (c *Client) Postfilter(ctx context.Context) ([]PostfilterReport, error) {
	return queryReports[PostfilterReport](ctx, c, "postfilter")
}

// FormatValue renders a parameter value for the wire. Floats always
// use fixed-point decimal: the instrument's command parser does not
// accept scientific notation.
func FormatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 6, 32)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// SetParameter sends `<topic> <channel> <field> <value>` and discards
// the single acknowledgement line the firmware replies with.
func (c *Client) SetParameter(ctx context.Context, topic string, channel int, field string, value any) error {
	if c.streaming {
		return fmt.Errorf("set %s %d %s: connection is in continuous mode", topic, channel, field)
	}
	if err := c.SendCommand(ctx, topic, strconv.Itoa(channel), field, FormatValue(value)); err != nil {
		return err
	}
	return c.discardAck(ctx, topic)
}

// PowerUp puts a channel into closed-loop mode at the given
// temperature target.
func (c *Client) PowerUp(ctx context.Context, channel int, target float64) error {
	if err := c.SetParameter(ctx, "pid", channel, "target", target); err != nil {
		return err
	}
	if c.streaming {
		return fmt.Errorf("power up channel %d: connection is in continuous mode", channel)
	}
	if err := c.SendCommand(ctx, "pwm", strconv.Itoa(channel), "pid"); err != nil {
		return err
	}
	return c.discardAck(ctx, "pwm")
}

// SaveConfig persists the current instrument configuration to EEPROM.
func (c *Client) SaveConfig(ctx context.Context) error {
	return c.SendCommand(ctx, "save")
}

// LoadConfig restores the instrument configuration from EEPROM.
func (c *Client) LoadConfig(ctx context.Context) error {
	return c.SendCommand(ctx, "load")
}

func (c *Client) discardAck(ctx context.Context, topic string) error {
	_, err := c.readLine(ctx)
	if errors.Is(err, io.EOF) {
		return &ProtocolError{Topic: topic, Want: 1, Got: 0}
	}
	return err
}

// StreamOptions configure continuous telemetry.
type StreamOptions struct {
	// Channel restricts the stream to records tagged with this
	// channel; nil passes every record through.
	Channel *int
	// DiscardAck drops one reply line after enabling report mode.
	// Some firmware revisions acknowledge the command, some start
	// streaming immediately; misreading the acknowledgement as the
	// first sample corrupts it, so this is explicit configuration
	// rather than a guess.
	DiscardAck bool
}

// Stream enables continuous reporting and returns the telemetry
// stream. The connection stays in continuous mode afterwards: further
// queries on this client fail, and the stream is not restartable.
func (c *Client) Stream(ctx context.Context, opts StreamOptions) (*Stream, error) {
	if c.streaming {
		return nil, errors.New("continuous mode already enabled")
	}
	if err := c.SendCommand(ctx, "report", "mode", "on"); err != nil {
		return nil, err
	}
	if opts.DiscardAck {
		if err := c.discardAck(ctx, "report mode"); err != nil {
			return nil, err
		}
	}
	c.streaming = true
	return &Stream{c: c, channel: opts.Channel}, nil
}

// Stream yields telemetry records until the connection closes.
type Stream struct {
	c       *Client
	channel *int
	done    bool
}

// Next blocks for the next record matching the channel filter.
// Malformed lines are expected noise (firmware interleaves log text
// with telemetry) and are skipped silently. Once the transport signals
// closure Next returns io.EOF forever; transport failures surface as
// *TransportError and also end the stream.
func (s *Stream) Next(ctx context.Context) (TelemetryRecord, error) {
	if s.done {
		return TelemetryRecord{}, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			return TelemetryRecord{}, err
		}
		line, err := s.c.readLine(ctx)
		if err != nil {
			s.done = true
			return TelemetryRecord{}, err
		}
		rec, err := decodeTelemetry(line)
		if err != nil {
			s.c.logger.Debug("skipping non-telemetry line", "line", line)
			continue
		}
		if s.channel != nil && rec.Channel != *s.channel {
			continue
		}
		return rec, nil
	}
}
