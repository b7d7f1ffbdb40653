package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"thermogo/internal/config"
	"thermogo/internal/protocol"
)

type fakeTransport struct {
	replies []string
	written []string
}

func (f *fakeTransport) Name() string                  { return "fake" }
func (f *fakeTransport) Connect(context.Context) error { return nil }
func (f *fakeTransport) Connected() bool               { return true }
func (f *fakeTransport) Close() error                  { return nil }

func (f *fakeTransport) ReadChunk(context.Context) ([]byte, error) {
	if len(f.replies) == 0 {
		return nil, io.EOF
	}
	chunk := f.replies[0]
	f.replies = f.replies[1:]
	return []byte(chunk), nil
}

func (f *fakeTransport) WriteLine(_ context.Context, line []byte) error {
	f.written = append(f.written, string(line))
	return nil
}

func TestNewTransportForConnection(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.ConnectionConfig
		wantName  string
		wantError bool
	}{
		{
			name:     "ip",
			cfg:      config.ConnectionConfig{Connector: config.ConnectorIP, Host: "192.168.1.26", Port: 23},
			wantName: "ip",
		},
		{
			name:     "serial",
			cfg:      config.ConnectionConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyACM0", SerialBaud: 115200},
			wantName: "serial",
		},
		{
			name:      "unknown",
			cfg:       config.ConnectionConfig{Connector: "bluetooth"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransportForConnection(tt.cfg)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got transport %q", tr.Name())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tr.Name() != tt.wantName {
				t.Fatalf("transport name = %q, want %q", tr.Name(), tt.wantName)
			}
		})
	}
}

func TestBuildRegistryAppliesTransforms(t *testing.T) {
	reg := BuildRegistry(config.PlotConfig{
		Series: map[string]config.SeriesConfig{
			"sens":        {Scale: 0.0001},
			"temperature": {},
			"adc":         {Scale: 1, Offset: -1.5},
		},
	})

	reg.Update("sens", 1, 30000)
	reg.Update("temperature", 1, 36.5)
	reg.Update("adc", 1, 2.0)

	snap, ok := reg.SnapshotAndClip(0)
	if !ok {
		t.Fatalf("expected data in snapshot")
	}
	if got := snap.Series["sens"].Ys[0]; got != 3.0 {
		t.Fatalf("sens value = %v, want 3.0", got)
	}
	// A zero scale means the transform was left unconfigured, not that
	// the trace should flatline.
	if got := snap.Series["temperature"].Ys[0]; got != 36.5 {
		t.Fatalf("temperature value = %v, want 36.5", got)
	}
	if got := snap.Series["adc"].Ys[0]; got != 0.5 {
		t.Fatalf("adc value = %v, want 0.5", got)
	}
}

func TestApplySetupConfiguresEveryChannel(t *testing.T) {
	tr := &fakeTransport{
		// One acknowledgement per set command: 3 limits per channel
		// plus the pid target and pwm pid commands of power-up.
		replies: []string{strings.Repeat("{}\n", 10)},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := protocol.NewClient(logger, tr, protocol.WithChannels(2))

	target := 25.0
	err := ApplySetup(context.Background(), client, ChannelLimits{
		MaxV:    3,
		MaxIPos: 2,
		MaxINeg: 2,
	}, &target)
	if err != nil {
		t.Fatalf("ApplySetup: %v", err)
	}

	want := []string{
		"pwm 0 max_v 3.000000\n",
		"pwm 0 max_i_pos 2.000000\n",
		"pwm 0 max_i_neg 2.000000\n",
		"pid 0 target 25.000000\n",
		"pwm 0 pid\n",
		"pwm 1 max_v 3.000000\n",
		"pwm 1 max_i_pos 2.000000\n",
		"pwm 1 max_i_neg 2.000000\n",
		"pid 1 target 25.000000\n",
		"pwm 1 pid\n",
	}
	if len(tr.written) != len(want) {
		t.Fatalf("wrote %d commands, want %d: %q", len(tr.written), len(want), tr.written)
	}
	for i, line := range want {
		if tr.written[i] != line {
			t.Fatalf("command %d = %q, want %q", i, tr.written[i], line)
		}
	}
}
