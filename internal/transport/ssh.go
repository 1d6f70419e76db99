package transport

import (
	"context"
	"net"
	"sync"

	rlerr "gorelay/internal/errors"
	"gorelay/tunnel"
	"gorelay/util"
)

// SSHDialer reaches the relay endpoint through an SSH jump host.  The
// tunnel is connected lazily on the first Dial call and torn down on
// Close.
type SSHDialer struct {
	tunnel    tunnel.Tunnel
	target    string
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  Nothing is dialled until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return NewTunnelDialer(tunnel.NewSSHTunnel(cfg, logger), cfg.Target(), logger)
}

// NewTunnelDialer dials through any Tunnel.  target names the gateway
// in log messages.
func NewTunnelDialer(tun tunnel.Tunnel, target string, logger *util.Logger) *SSHDialer {
	return &SSHDialer{tunnel: tun, target: target, logger: logger}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	d.logger.Verbose("opening SSH tunnel via %s", d.target)
	if err := d.tunnel.Connect(ctx); err != nil {
		return err
	}
	d.connected = true
	d.logger.Verbose("SSH tunnel up")
	return nil
}

// Dial connects to address from the far side of the tunnel.  A failure
// to bring the tunnel up counts as a dial failure of address.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, rlerr.Wrap("dial", address, err)
	}
	conn, err := d.tunnel.Dial(ctx, network, address)
	if err != nil {
		return nil, rlerr.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.tunnel.Close()
	}
	return nil
}
