package app

import (
	"fmt"
	"time"

	"thermogo/internal/config"
	"thermogo/internal/transport"
)

// NewTransportForConnection builds the byte-stream transport the
// connection config selects.
func NewTransportForConnection(cfg config.ConnectionConfig) (transport.Transport, error) {
	switch cfg.Connector {
	case config.ConnectorIP:
		timeout := time.Duration(cfg.ReadTimeoutSeconds) * time.Second
		return transport.NewIPTransport(cfg.Host, cfg.Port, timeout), nil
	case config.ConnectorSerial:
		return transport.NewSerialTransport(cfg.SerialPort, cfg.SerialBaud), nil
	default:
		return nil, fmt.Errorf("unknown connector: %s", cfg.Connector)
	}
}
