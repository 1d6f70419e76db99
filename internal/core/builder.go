package core

import (
	"io"

	"gorelay/config"
	"gorelay/internal/capability"
	"gorelay/internal/metrics"
	"gorelay/internal/pump"
	"gorelay/internal/transport"
	"gorelay/tunnel"
	"gorelay/util"
)

// Option adjusts the ConnectMode built by Build.
type Option func(*ConnectMode)

// WithIO makes the relay read lines from in and print chunks to out
// instead of the process stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(m *ConnectMode) {
		m.Stdin = in
		m.Stdout = out
	}
}

// Build constructs the relay Mode for cfg.  cfg is expected to have
// passed Validate.
func Build(cfg *config.Config, logger *util.Logger, opts ...Option) (Mode, error) {
	render, err := pump.RendererFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	m := &ConnectMode{
		Dialer: buildDialer(cfg, logger),
		Capability: &capability.Relay{
			Render:    render,
			ChunkSize: config.ChunkSize,
			HalfClose: cfg.HalfClose,
		},
		Network: "tcp",
		Address: cfg.Address(),
		Logger:  logger,
		Metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// buildDialer picks a direct TCP dialer, or an SSH jump when a tunnel
// is configured.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
			KeepAlive:     cfg.SSHKeepAlive,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Timeout}
}
