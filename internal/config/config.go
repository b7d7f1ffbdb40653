package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorIP     ConnectorType = "ip"
	ConnectorSerial ConnectorType = "serial"

	DefaultTCPPort     = 23
	DefaultSerialBaud  = 115200
	DefaultChannels    = 2
	DefaultWindowSec   = 300.0
	DefaultRedrawMS    = 200
	DefaultRetainDays  = 30
	DefaultSensorScale = 0.0001
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector          ConnectorType `json:"connector"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	SerialPort         string        `json:"serial_port"`
	SerialBaud         int           `json:"serial_baud"`
	ReadTimeoutSeconds int           `json:"read_timeout_seconds"`
}

// ProtocolConfig captures protocol-revision quirks.
type ProtocolConfig struct {
	// Channels is the controller's control loop count; queries reply
	// with one JSON line per channel.
	Channels int `json:"channels"`
	// ReportAck: some firmware revisions acknowledge `report mode on`
	// with one line before telemetry begins, some do not.
	ReportAck bool `json:"report_ack"`
}

// SeriesConfig transforms one plotted measurement: y' = scale*y + offset.
type SeriesConfig struct {
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// PlotConfig stores live plot preferences.
type PlotConfig struct {
	WindowSeconds    float64                 `json:"window_seconds"`
	RedrawIntervalMS int                     `json:"redraw_interval_ms"`
	Channel          int                     `json:"channel"`
	Series           map[string]SeriesConfig `json:"series"`
}

// StorageConfig controls telemetry history recording.
type StorageConfig struct {
	Record        bool `json:"record"`
	RetentionDays int  `json:"retention_days"`
}

// AlertsConfig bounds the acceptable temperature band.
type AlertsConfig struct {
	Enabled        bool    `json:"enabled"`
	MinTemperature float64 `json:"min_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Protocol   ProtocolConfig   `json:"protocol"`
	Plot       PlotConfig       `json:"plot"`
	Storage    StorageConfig    `json:"storage"`
	Alerts     AlertsConfig     `json:"alerts"`
	Logging    LoggingConfig    `json:"logging"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector:          ConnectorIP,
			Host:               "",
			Port:               DefaultTCPPort,
			SerialPort:         "",
			SerialBaud:         DefaultSerialBaud,
			ReadTimeoutSeconds: 0,
		},
		Protocol: ProtocolConfig{
			Channels:  DefaultChannels,
			ReportAck: false,
		},
		Plot: PlotConfig{
			WindowSeconds:    DefaultWindowSec,
			RedrawIntervalMS: DefaultRedrawMS,
			Channel:          0,
			Series:           DefaultSeries(),
		},
		Storage: StorageConfig{
			Record:        false,
			RetentionDays: DefaultRetainDays,
		},
		Alerts: AlertsConfig{
			Enabled:        false,
			MinTemperature: 0,
			MaxTemperature: 60,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
	}
}

// DefaultSeries lists the report-mode measurements worth plotting,
// with the sense resistance scaled down into the same axis range as
// the temperatures and currents.
func DefaultSeries() map[string]SeriesConfig {
	return map[string]SeriesConfig{
		"adc":          {Scale: 1},
		"sens":         {Scale: DefaultSensorScale},
		"temperature":  {Scale: 1},
		"i_set":        {Scale: 1},
		"vref":         {Scale: 1},
		"dac_feedback": {Scale: 1},
		"i_tec":        {Scale: 1},
		"tec_i":        {Scale: 1},
		"tec_u_meas":   {Scale: 1},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorIP
	}
	if c.Connection.Port <= 0 {
		c.Connection.Port = DefaultTCPPort
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Protocol.Channels <= 0 {
		c.Protocol.Channels = DefaultChannels
	}
	if c.Plot.WindowSeconds <= 0 {
		c.Plot.WindowSeconds = DefaultWindowSec
	}
	if c.Plot.RedrawIntervalMS <= 0 {
		c.Plot.RedrawIntervalMS = DefaultRedrawMS
	}
	if len(c.Plot.Series) == 0 {
		c.Plot.Series = DefaultSeries()
	}
	if c.Storage.RetentionDays <= 0 {
		c.Storage.RetentionDays = DefaultRetainDays
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorIP:
		if strings.TrimSpace(c.Connection.Host) == "" {
			return errors.New("ip host is required")
		}
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}
	if c.Plot.Channel < 0 || c.Plot.Channel >= c.Protocol.Channels {
		return fmt.Errorf("plot channel %d out of range (channels: %d)", c.Plot.Channel, c.Protocol.Channels)
	}
	if c.Alerts.Enabled && c.Alerts.MinTemperature >= c.Alerts.MaxTemperature {
		return errors.New("alert temperature band is empty")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
