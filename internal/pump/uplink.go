package pump

import (
	"context"
	"fmt"
	"io"

	rlerr "gorelay/internal/errors"
	"gorelay/internal/session"
)

// Uplink forwards stdin to the connection line by line.
type Uplink struct {
	// HalfClose makes a stdin EOF shut only the sending half of the
	// connection so the peer can keep answering.
	HalfClose bool
}

// Run pumps lines from sess.Stdin to sess until stdin ends, the
// connection fails, or ctx is done.  Each line goes out in one Write,
// and the next line is not read before that Write returned.
//
// On the way out Run closes the session (or half-closes it on EOF in
// HalfClose mode) and only returns once that finished.
func (u *Uplink) Run(ctx context.Context, sess *session.Session) error {
	err := u.pump(ctx, sess, NewLineReader(sess.Stdin))

	if u.HalfClose && err == io.EOF {
		sess.Logger.Debug("uplink: stdin closed, half-closing connection")
		if cerr := sess.CloseWrite(); cerr != nil && !rlerr.IsTermination(cerr) {
			return rlerr.Wrap("close-write", sess.RemoteAddr(), cerr)
		}
		return nil
	}

	sess.Logger.Debug("uplink: stopping (%v), closing connection", stopReason(err))
	cerr := sess.Close()

	if !rlerr.IsTermination(err) {
		return err
	}
	if cerr != nil && !rlerr.IsTermination(cerr) {
		return rlerr.Wrap("close", sess.RemoteAddr(), cerr)
	}
	return nil
}

func (u *Uplink) pump(ctx context.Context, sess *session.Session, lines *LineReader) error {
	for {
		line, err := lines.Next(ctx)
		if len(line) > 0 {
			if _, werr := sess.Write(line); werr != nil {
				if rlerr.IsTermination(werr) {
					return werr
				}
				return rlerr.Wrap("write", sess.RemoteAddr(), werr)
			}
			sess.Metrics.LineSent(len(line))
		}
		if err != nil {
			if rlerr.IsTermination(err) {
				return err
			}
			return fmt.Errorf("read stdin: %w", err)
		}
	}
}

func stopReason(err error) string {
	switch {
	case err == nil, err == io.EOF:
		return "end of stream"
	case rlerr.IsPeerReset(err):
		return "peer reset"
	case rlerr.IsCancellation(err):
		return "cancelled"
	default:
		return err.Error()
	}
}
