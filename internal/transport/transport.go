// Package transport provides abstractions for network connection
// establishment.  A transport decides how the relay reaches its
// endpoint (directly over TCP, or through an SSH jump host) and knows
// nothing about what flows over the connection afterwards.
package transport

//go:generate go tool mockgen -destination=./mocks/dialer_mock.go -package=mocks . Dialer

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	// Failures are reported as an *errors.NetworkError with Op "dial".
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
