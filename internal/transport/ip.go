package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// The controller's Telnet-style command port.
const defaultIPPort = 23

// IPTransport is the Ethernet byte stream to the thermostat.
type IPTransport struct {
	host        string
	port        int
	readTimeout time.Duration

	mu      sync.Mutex
	conn    net.Conn
	writeMu sync.Mutex

	readBuf []byte
}

// NewIPTransport prepares a TCP transport. readTimeout bounds every
// ReadChunk call when the caller's context carries no deadline; zero
// means block until data or closure.
func NewIPTransport(host string, port int, readTimeout time.Duration) *IPTransport {
	if port == 0 {
		port = defaultIPPort
	}

	return &IPTransport{
		host:        host,
		port:        port,
		readTimeout: readTimeout,
		readBuf:     make([]byte, readChunkSize),
	}
}

func (t *IPTransport) Name() string {
	return "ip"
}

func (t *IPTransport) StatusTarget() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.host == "" {
		return ""
	}

	return net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
}

func (t *IPTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil
}

func (t *IPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
	logger := transportLogger("ip", "target", target)

	if t.conn != nil {
		logger.Debug("connect skipped: already connected")

		return nil
	}
	if t.host == "" {
		logger.Warn("connect failed: host is empty")

		return errors.New("ip host is empty")
	}

	dialer := net.Dialer{Timeout: 6 * time.Second}
	logger.Info("connecting")
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		logger.Warn("connect failed", "error", err)

		return fmt.Errorf("dial tcp: %w", err)
	}
	t.conn = conn
	logger.Info("connected", "remote", conn.RemoteAddr().String())

	return nil
}

func (t *IPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := transportLogger("ip", "host", t.host)
	if t.conn == nil {
		logger.Debug("close skipped: not connected")

		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		logger.Warn("close failed", "error", err)

		return err
	}
	logger.Info("closed")

	return nil
}

func (t *IPTransport) ReadChunk(ctx context.Context) ([]byte, error) {
	conn, err := t.currentConn()
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else if t.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	n, err := conn.Read(t.readBuf)
	if n > 0 {
		return t.readBuf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	return nil, err
}

func (t *IPTransport) WriteLine(ctx context.Context, line []byte) error {
	logger := transportLogger("ip")
	conn, err := t.currentConn()
	if err != nil {
		logger.Debug("write failed: not connected", "error", err)

		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := conn.Write(line); err != nil {
		logger.Warn("write failed", "len", len(line), "error", err)

		return fmt.Errorf("write command line: %w", err)
	}
	logger.Debug("wrote line", "len", len(line))

	return nil
}

func (t *IPTransport) currentConn() (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}
