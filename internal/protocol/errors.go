package protocol

import "fmt"

// TransportError wraps a connection-level failure (refused, reset,
// timeout). It is fatal to the current session; the client never
// retries or reconnects.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports that the stream ended before a query received
// the expected number of reply lines.
type ProtocolError struct {
	Topic string
	Want  int
	Got   int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("query %q: stream closed after %d of %d reply lines", e.Topic, e.Got, e.Want)
}

// DecodeError reports a reply line that was expected to be JSON but
// could not be parsed. Fatal for query replies; continuous-mode
// telemetry skips such lines instead.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode reply line %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
