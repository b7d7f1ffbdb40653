package bus

import "time"

const (
	TopicConnStatus = "conn.status"
	TopicTelemetry  = "telemetry.sample"
	TopicRawLineIn  = "raw.line.in"
	TopicRawLineOut = "raw.line.out"
	TopicAlert      = "alert.temperature"
)

// ConnectionState describes the session lifecycle shown in the UI.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateStreaming    ConnectionState = "streaming"
)

// ConnectionStatus is a bus event snapshot of the session status.
type ConnectionStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// RawLine carries one wire line for debug/log views.
type RawLine struct {
	Text string
	Len  int
}

// AlertKind distinguishes limit excursions.
type AlertKind string

const (
	AlertHighTemperature AlertKind = "high"
	AlertLowTemperature  AlertKind = "low"
	AlertRecovered       AlertKind = "recovered"
)

// TemperatureAlert is published when a channel leaves or re-enters
// the configured temperature band.
type TemperatureAlert struct {
	Kind        AlertKind
	Channel     int
	Temperature float64
	Limit       float64
	At          time.Time
}
