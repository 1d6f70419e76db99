package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	rlerr "gorelay/internal/errors"
	"gorelay/util"
)

const (
	defaultConnTimeout = 30 * time.Second
	keepAliveRequest   = "keepalive@openssh.com"
)

// SSHConfig holds everything needed to log in to a jump host.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
	KeepAlive     time.Duration // 0 disables keepalive requests

	// Prompt reads passwords and key passphrases.  Defaults to
	// TerminalPrompt.
	Prompt Prompter
}

// Target renders the jump host as user@host:port.
func (c *SSHConfig) Target() string {
	hp := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	if c.User == "" {
		return hp
	}
	return c.User + "@" + hp
}

// SSHTunnel implements [Tunnel] by opening an SSH connection and
// forwarding traffic with ssh.Client.Dial (a direct-tcpip channel).
type SSHTunnel struct {
	config *SSHConfig
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
	done   chan struct{}
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = defaultConnTimeout
	}
	if cfg.Prompt == nil {
		cfg.Prompt = TerminalPrompt
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

// Connect dials the jump host and completes the handshake.  Cancelling
// ctx aborts a handshake in progress.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	c := t.config

	authMethods, err := BuildAuthMethods(c)
	if err != nil {
		return rlerr.WrapSSH("auth", c.Host, c.Port, err)
	}
	hkCallback, err := hostKeyCallback(c, t.logger)
	if err != nil {
		return rlerr.WrapSSH("hostkey", c.Host, c.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            c.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         c.ConnTimeout,
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	t.logger.Debug("SSH: dialing %s as %s", addr, c.User)

	dialer := net.Dialer{Timeout: c.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return rlerr.Wrap("dial", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { tcpConn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if !stop() {
		if err == nil {
			sshConn.Close()
		}
		return rlerr.WrapSSH("handshake", c.Host, c.Port, ctx.Err())
	}
	if err != nil {
		tcpConn.Close()
		return rlerr.WrapSSH("handshake", c.Host, c.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	t.mu.Lock()
	t.client = client
	t.alive = true
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go t.monitor(client, done)
	if c.KeepAlive > 0 {
		go t.keepAlive(client, done)
	}
	return nil
}

// Dial opens a connection to address from the far side of the tunnel.
// The returned conn does not support deadlines.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client := t.client
	alive := t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, rlerr.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.logger.Debug("tunnel: dialing %s %s", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client == nil {
		return nil
	}
	close(t.done)
	err := t.client.Close()
	t.client = nil
	return err
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSHTunnel) monitor(client *ssh.Client, done <-chan struct{}) {
	err := client.Wait()

	t.mu.Lock()
	t.alive = false
	t.mu.Unlock()

	select {
	case <-done:
		t.logger.Debug("SSH tunnel closed")
	default:
		t.logger.Warn("SSH tunnel lost: %v", err)
	}
}

// keepAlive pings the jump host until the tunnel is closed.  A failed
// ping tears the client down, which ends every forwarded connection.
func (t *SSHTunnel) keepAlive(client *ssh.Client, done <-chan struct{}) {
	ticker := time.NewTicker(t.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if _, _, err := client.SendRequest(keepAliveRequest, true, nil); err != nil {
				t.logger.Error("SSH keepalive failed: %v", err)
				client.Close()
				return
			}
			t.logger.Debug("SSH keepalive OK")
		}
	}
}
