package capability

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	rlerr "gorelay/internal/errors"
	"gorelay/internal/pump"
	"gorelay/internal/session"
)

// Relay runs the uplink and downlink pumps side by side.  Whichever
// finishes first wins: the session moves to Draining, the other pump
// is interrupted, and Handle returns once both have stopped.
type Relay struct {
	Render    pump.Renderer
	ChunkSize int
	HalfClose bool
}

// Handle relays until one direction ends or ctx is cancelled.  The
// connection is closed when Handle returns.  Expected endings (EOF,
// peer reset, cancellation) yield nil; anything else is returned,
// joined if both pumps failed.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var once sync.Once
	drain := func() {
		once.Do(func() {
			if err := sess.Lifecycle.Advance(session.StateDraining); err != nil {
				sess.Logger.Debug("relay: %v", err)
			}
			cancel()
			sess.Interrupt()
		})
	}
	// Covers an outside cancellation and a pump failing with an error.
	stop := context.AfterFunc(gctx, drain)
	defer stop()

	up := &pump.Uplink{HalfClose: r.HalfClose}
	down := &pump.Downlink{Render: r.Render, ChunkSize: r.ChunkSize}

	var errs [2]error
	g.Go(func() error {
		errs[0] = up.Run(gctx, sess)
		// In half-close mode the peer decides when we are done.
		if !r.HalfClose || errs[0] != nil {
			drain()
		}
		return errs[0]
	})
	g.Go(func() error {
		errs[1] = down.Run(gctx, sess)
		drain()
		return errs[1]
	})

	g.Wait() //nolint:errcheck // both results are in errs
	drain()

	if err := sess.Close(); err != nil && !rlerr.IsTermination(err) {
		sess.Logger.Debug("relay: close: %v", err)
	}
	return rlerr.Join(errs[0], errs[1])
}
