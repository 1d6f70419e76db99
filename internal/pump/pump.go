// Package pump implements the two data movers of a relay session.
//
// The Uplink forwards stdin lines to the connection, one write per
// line.  The Downlink reads chunks from the connection and renders
// each one to stdout.  Both treat EOF, a peer reset, and cancellation
// as a normal stop and return nil; only unexpected failures come back
// as errors.
package pump
