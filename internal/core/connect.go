package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"gorelay/internal/capability"
	"gorelay/internal/metrics"
	"gorelay/internal/session"
	"gorelay/internal/transport"
	"gorelay/util"
)

// ConnectMode dials the relay endpoint and runs a capability on the
// resulting connection.  It owns the run's Lifecycle.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Network    string
	Address    string
	Logger     *util.Logger
	Metrics    *metrics.Collector // optional

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer

	// OnTransition, if set, observes every lifecycle change.
	OnTransition func(from, to session.State)
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the endpoint, creates the session, and hands it to the
// capability.  A dial failure returns at once without starting any
// pump and without a disconnect notice.  Otherwise the connection is
// closed and "disconnected" logged exactly once before Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	lc := session.NewLifecycle(m.transition)

	m.Logger.Verbose("connecting to %s (%s)", m.Address, m.Network)

	conn, err := m.Dialer.Dial(ctx, m.Network, m.Address)
	if err != nil {
		m.advance(lc, session.StateClosed)
		m.Metrics.RecordError(err.Error())
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}

	m.advance(lc, session.StateActive)
	m.Metrics.Connected()
	m.Logger.Info("connected to %s", m.Address)

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger)
	sess.Metrics = m.Metrics
	sess.Lifecycle = lc

	herr := m.Capability.Handle(ctx, sess)
	if herr != nil {
		m.Metrics.RecordError(herr.Error())
	}

	if err := sess.Close(); err != nil {
		m.Logger.Debug("close: %v", err)
	}
	m.advance(lc, session.StateDraining)
	m.advance(lc, session.StateClosed)

	m.Logger.Info("disconnected")
	m.Logger.Verbose("%s", m.Metrics.Summary())
	if m.Logger.Enabled(util.LogDebug) {
		m.Logger.Debug("metrics: %s", m.Metrics.JSON())
	}
	return herr
}

func (m *ConnectMode) advance(lc *session.Lifecycle, to session.State) {
	if err := lc.Advance(to); err != nil {
		m.Logger.Error("%v", err)
	}
}

func (m *ConnectMode) transition(from, to session.State) {
	m.Logger.Debug("state: %s → %s", from, to)
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}
