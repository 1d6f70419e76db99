// Package errors provides domain-specific error types for gorelay.
//
// The relay distinguishes four outcomes: a dial failure, a peer reset,
// a cancellation raised while draining, and everything else.  Only the
// first and the last ever reach the top-level reporter; the pumps use
// [IsTermination] to absorb the rest.
package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrSessionClosed     = errors.New("session is closed")
	ErrIllegalTransition = errors.New("illegal lifecycle transition")
	ErrNotConnected      = errors.New("not connected")
	ErrAuthFailed        = errors.New("authentication failed")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.  A dial
// failure is a NetworkError with Op "dial".
type NetworkError struct {
	Op   string // operation: "dial", "read", "write"
	Addr string // network address involved
	Err  error  // underlying error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsDial reports whether err came out of the connect step.
func IsDial(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Op == "dial"
}

// IsPeerReset reports whether the remote side forcibly dropped the
// connection.
func IsPeerReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsCancellation reports whether err is the echo of our own shutdown:
// a cancelled context, an interrupted read or write, or a connection
// we already closed.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, ErrSessionClosed)
}

// IsTermination reports whether err is an expected way for a pump to
// stop.  nil counts as expected.
func IsTermination(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, io.EOF) || IsPeerReset(err) || IsCancellation(err)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use gorelay/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
