// Package core is the orchestration layer.  It composes a transport
// and a capability into a runnable mode and provides a builder that
// assembles that mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  capability  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete run of gorelay, from dialing to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
