package bridge

import (
	"errors"
	"fmt"
)

// Errors returned by lifecycle and codec operations.
var (
	// ErrPeerDisconnected is returned by Receive when the client closed its side cleanly.
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrMalformedRecord is returned when a frame holds fewer integer fields than the record needs.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrNoActiveConnection is returned when Receive or Send is called without a connected client.
	ErrNoActiveConnection = errors.New("no active connection")
)

// Errors returned when an operation is called in the wrong lifecycle state.
var (
	ErrAlreadyListening = errors.New("server already listening")
	ErrNotListening     = errors.New("server not listening")
	ErrClientActive     = errors.New("client already connected")
	ErrLifecycleClosed  = errors.New("lifecycle closed")
)

// Errors returned by New for invalid options.
var (
	ErrInvalidBindAddress = errors.New("bind address must be IPv4")
	ErrInvalidFrameSize   = errors.New("max frame size too small for a record")
)

// TransportError reports a failed socket operation. Op names the step that
// failed: socket, setsockopt, bind, listen, accept, recv or send.
type TransportError struct {
	Op  string
	Err error
}

// Error formats the failing step and its cause.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying socket error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying error was a deadline expiry.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func transportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
