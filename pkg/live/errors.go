// ABOUTME: Error types for the live session
// ABOUTME: Covers routing, connection, capture and retry exhaustion failures
package live

import (
	"errors"
	"fmt"
)

var (
	// ErrExhaustedRetries is reported when the connection closes with no
	// reconnect attempts left
	ErrExhaustedRetries = errors.New("reconnect attempts exhausted")

	// ErrNotOpen is returned when sending while no connection is open
	ErrNotOpen = errors.New("session not open")

	// ErrStopped is returned by operations on a stopped session
	ErrStopped = errors.New("session stopped")
)

// RouteError reports an inbound message that could not be routed
type RouteError struct {
	MessageType int
	Reason      string
	Err         error
}

func (e *RouteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route message (type %d): %s: %v", e.MessageType, e.Reason, e.Err)
	}
	return fmt.Sprintf("route message (type %d): %s", e.MessageType, e.Reason)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}

// ConnectionError wraps a dial, handshake or read failure
type ConnectionError struct {
	Attempt int
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed (attempt %d): %v", e.Attempt, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CaptureError wraps a failure of the audio capture source
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
