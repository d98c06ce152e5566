package tlscore

import (
	"errors"
	"fmt"
)

// ErrEOF signals a clean close observed before any payload. It is not a
// fault: RecvData surfaces it as an empty chunk.
var ErrEOF = errors.New("tlscore: EOF")

// ProtocolError is a peer or local protocol violation, carrying the alert
// description it maps to on the wire.
type ProtocolError struct {
	Reason string
	Fatal  bool
	Desc   Alert
}

func (e *ProtocolError) Error() string {
	level := "warning"
	if e.Fatal {
		level = "fatal"
	}
	return fmt.Sprintf("protocol error (%s %s): %s", level, e.Desc, e.Reason)
}

// MiscError is a condition the driver detects itself, most often an
// unexpected message. In the receive loop it terminates the session with
// a fatal alert: unexpected_message for unexpected messages, otherwise the
// alert that fits the condition (handshake_failure, internal_error).
// UpdateKey and Handshake return it without terminating the session.
type MiscError struct {
	Reason string
}

func (e *MiscError) Error() string {
	return e.Reason
}

// TerminatedError is the single fault raised out of the driver. Clean is
// true when the peer ended the session (fatal alert) rather than a local
// failure. After it is returned once, every API call on the Context fails
// fast with the same value.
type TerminatedError struct {
	Clean  bool
	Reason string
	Err    error
}

func (e *TerminatedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session terminated: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("session terminated: %s", e.Reason)
}

func (e *TerminatedError) Unwrap() error {
	return e.Err
}
