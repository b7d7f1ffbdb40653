package transport

import "context"

// Transport is an established byte stream to the thermostat. The
// protocol client owns it exclusively: reads feed the line framer,
// writes carry whole command lines.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Connected() bool
	Close() error
	// ReadChunk returns the next raw chunk from the stream. The
	// returned slice is only valid until the next call. io.EOF
	// means the peer closed the connection.
	ReadChunk(ctx context.Context) ([]byte, error)
	// WriteLine writes one complete command line atomically with
	// respect to other writers.
	WriteLine(ctx context.Context, line []byte) error
}

// StatusTargetResolver exposes a human-readable connection target for
// status displays.
type StatusTargetResolver interface {
	StatusTarget() string
}

const readChunkSize = 4096
