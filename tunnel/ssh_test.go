package tunnel

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	rlerr "gorelay/internal/errors"
	"gorelay/util"
)

func fakeTCPAddr(t *testing.T, s string) *net.TCPAddr {
	t.Helper()
	a, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// startJumpHost runs an SSH server that accepts any client and answers
// every direct-tcpip channel with an echo.
func startJumpHost(t *testing.T) (host string, port int) {
	t.Helper()

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(testSigner(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSH(nc, cfg)
		}
	}()

	a := ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func serveSSH(nc net.Conn, cfg *ssh.ServerConfig) {
	sc, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		nc.Close()
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)

	for nch := range chans {
		if nch.ChannelType() != "direct-tcpip" {
			nch.Reject(ssh.UnknownChannelType, "unsupported") //nolint:errcheck
			continue
		}
		ch, creqs, err := nch.Accept()
		if err != nil {
			continue
		}
		go ssh.DiscardRequests(creqs)
		go func() {
			defer ch.Close()
			io.Copy(ch, ch) //nolint:errcheck
		}()
	}
}

func newTestTunnel(t *testing.T, host string, port int) *SSHTunnel {
	t.Helper()
	cfg := &SSHConfig{
		User:        "relay",
		Host:        host,
		Port:        port,
		KeyPath:     writeTestKey(t),
		ConnTimeout: 2 * time.Second,
		KeepAlive:   20 * time.Millisecond,
	}
	tun := NewSSHTunnel(cfg, util.NewLogger(0))
	t.Cleanup(func() { tun.Close() })
	return tun
}

func TestSSHTunnel_DialEcho(t *testing.T) {
	host, port := startJumpHost(t)
	tun := newTestTunnel(t, host, port)

	if err := tun.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !tun.IsAlive() {
		t.Fatal("tunnel should be alive after Connect")
	}

	conn, err := tun.Dial(context.Background(), "tcp", "127.0.0.1:8124")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 16)
	n, err := io.ReadAtLeast(conn, buf, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "ping\n" {
		t.Errorf("echo = %q, want %q", got, "ping\n")
	}

	// Let a few keepalives go through.
	time.Sleep(80 * time.Millisecond)
	if !tun.IsAlive() {
		t.Error("keepalive should not kill a healthy tunnel")
	}

	if err := tun.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if tun.IsAlive() {
		t.Error("tunnel should be dead after Close")
	}
	if err := tun.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSSHTunnel_DialBeforeConnect(t *testing.T) {
	tun := newTestTunnel(t, "127.0.0.1", 22)

	_, err := tun.Dial(context.Background(), "tcp", "127.0.0.1:8124")
	if !errors.Is(err, rlerr.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestSSHTunnel_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tun := newTestTunnel(t, "127.0.0.1", port)
	err = tun.Connect(context.Background())
	if !rlerr.IsDial(err) {
		t.Fatalf("err = %v, want a dial error", err)
	}
}

// TestSSHTunnel_HandshakeCancelled points the tunnel at a server that
// never speaks SSH; cancelling must abort the stalled handshake.
func TestSSHTunnel_HandshakeCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		time.Sleep(2 * time.Second)
	}()

	a := ln.Addr().(*net.TCPAddr)
	tun := newTestTunnel(t, a.IP.String(), a.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = tun.Connect(ctx)
	var se *rlerr.SSHError
	if !errors.As(err, &se) || se.Op != "handshake" {
		t.Fatalf("err = %v, want handshake SSHError", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Connect took %v after cancellation", elapsed)
	}
}
