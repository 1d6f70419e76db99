package core

import (
	"strings"
	"testing"

	"gorelay/config"
	"gorelay/internal/capability"
	"gorelay/internal/transport"
	"gorelay/util"
)

func TestBuild_Defaults(t *testing.T) {
	mode, err := Build(config.Default(), util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	cm, ok := mode.(*ConnectMode)
	if !ok {
		t.Fatalf("expected *ConnectMode, got %T", mode)
	}
	if cm.Address != "127.0.0.1:8124" || cm.Network != "tcp" {
		t.Errorf("target = %s %s", cm.Network, cm.Address)
	}
	if _, ok := cm.Dialer.(*transport.TCPDialer); !ok {
		t.Errorf("Dialer = %T, want *TCPDialer", cm.Dialer)
	}
	relay, ok := cm.Capability.(*capability.Relay)
	if !ok {
		t.Fatalf("Capability = %T, want *Relay", cm.Capability)
	}
	if relay.ChunkSize != config.ChunkSize || relay.Render == nil || relay.HalfClose {
		t.Errorf("relay = %+v", relay)
	}
	if cm.Metrics == nil {
		t.Error("Metrics should be set")
	}
}

func TestBuild_Tunnel(t *testing.T) {
	cfg := config.Default()
	cfg.TunnelEnabled = true
	cfg.TunnelUser = "ops"
	cfg.TunnelHost = "jump.example"
	cfg.TunnelPort = 22
	cfg.HalfClose = true

	mode, err := Build(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	cm := mode.(*ConnectMode)
	if _, ok := cm.Dialer.(*transport.SSHDialer); !ok {
		t.Errorf("Dialer = %T, want *SSHDialer", cm.Dialer)
	}
	if !cm.Capability.(*capability.Relay).HalfClose {
		t.Error("HalfClose not carried into the relay")
	}
}

func TestBuild_BadFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "json"
	if _, err := Build(cfg, util.NewLogger(0)); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestBuild_WithIO(t *testing.T) {
	in := strings.NewReader("ping\n")
	out := &strings.Builder{}

	mode, err := Build(config.Default(), util.NewLogger(0), WithIO(in, out))
	if err != nil {
		t.Fatal(err)
	}
	cm := mode.(*ConnectMode)
	if cm.stdin() != in || cm.stdout() != out {
		t.Error("WithIO streams not used by the mode")
	}
}
