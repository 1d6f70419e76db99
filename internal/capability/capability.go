// Package capability defines what happens over an established
// connection.  A Capability operates on a Session rather than a raw
// net.Conn, which keeps it testable and decoupled from the transport.
package capability

import (
	"context"

	"gorelay/internal/session"
)

// Capability handles a single connection.  The relay between stdio
// and the socket is the only one gorelay ships.
type Capability interface {
	// Handle runs the capability against the given session.  It
	// blocks until the session is done or the context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
