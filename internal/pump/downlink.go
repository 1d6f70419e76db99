package pump

import (
	"context"
	"fmt"

	"gorelay/config"
	rlerr "gorelay/internal/errors"
	"gorelay/internal/session"
)

// Downlink prints what the peer sends.
type Downlink struct {
	Render    Renderer // defaults to RenderQuoted
	ChunkSize int      // defaults to config.ChunkSize
}

// Run reads chunks from sess and renders each to sess.Stdout until the
// peer closes, the connection fails, or ctx is done.  A blocked read
// only notices ctx once the session is interrupted.
func (d *Downlink) Run(ctx context.Context, sess *session.Session) error {
	render := d.Render
	if render == nil {
		render = RenderQuoted
	}
	size := d.ChunkSize
	if size <= 0 {
		size = config.ChunkSize
	}
	buf := make([]byte, size)

	for {
		n, err := sess.Read(buf)
		if n > 0 {
			sess.Metrics.ChunkReceived(n)
			if rerr := render(sess.Stdout, buf[:n]); rerr != nil {
				if rlerr.IsTermination(rerr) {
					return nil
				}
				return fmt.Errorf("render chunk: %w", rerr)
			}
		}
		if err != nil {
			sess.Logger.Debug("downlink: stopping (%v)", stopReason(err))
			if rlerr.IsTermination(err) {
				return nil
			}
			return rlerr.Wrap("read", sess.RemoteAddr(), err)
		}
		if ctx.Err() != nil {
			sess.Logger.Debug("downlink: cancelled")
			return nil
		}
	}
}
