// Package session represents the single connection of a relay run,
// binding it with the local I/O endpoints, its lifecycle state, and
// the traffic counters.
//
// The Session owns the open/closed fact of the connection: Close runs
// the underlying close exactly once no matter how many goroutines ask
// for it, and nothing is written to the connection once it is closed.
package session

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	rlerr "gorelay/internal/errors"
	"gorelay/internal/metrics"
	"gorelay/util"
)

// Session encapsulates the runtime context for one connection.
// Capabilities operate on sessions rather than raw connections.
type Session struct {
	Conn   net.Conn
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger

	// Optional; both are nil-safe.
	Metrics   *metrics.Collector
	Lifecycle *Lifecycle

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New creates a Session bound to the given connection and I/O pair.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	return &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}
}

// RemoteAddr returns the peer address as a string.
func (s *Session) RemoteAddr() string {
	if a := s.Conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Read reads one chunk from the connection.
func (s *Session) Read(p []byte) (int, error) {
	return s.Conn.Read(p)
}

// Write sends p to the connection in a single call.  After Close it
// fails with ErrSessionClosed without touching the connection.
func (s *Session) Write(p []byte) (int, error) {
	if s.closing.Load() {
		return 0, rlerr.ErrSessionClosed
	}
	return s.Conn.Write(p)
}

// CloseWrite shuts the sending half of the connection when the
// transport supports it, leaving the receiving half open.
func (s *Session) CloseWrite() error {
	if s.closing.Load() {
		return nil
	}
	if hc, ok := s.Conn.(interface{ CloseWrite() error }); ok {
		return hc.CloseWrite()
	}
	return nil
}

// Interrupt unblocks any Read or Write in progress on the connection
// without closing it.  The blocked call returns an error satisfying
// [rlerr.IsCancellation].
//
// Connections without deadline support (SSH channels) are closed
// instead.
func (s *Session) Interrupt() {
	if err := s.Conn.SetDeadline(time.Now()); err != nil && !s.Closed() {
		s.Logger.Debug("session: deadline unsupported (%v), closing", err)
		s.Close() //nolint:errcheck
	}
}

// Close closes the connection.  Only the first call reaches the
// underlying connection; every call returns after that close has
// completed and reports its result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.closeErr = s.Conn.Close()
		s.Metrics.Closed()
	})
	return s.closeErr
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closing.Load()
}
