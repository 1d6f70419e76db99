// Package config defines the runtime configuration for gorelay and
// provides helpers for parsing port numbers and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	rlerr "gorelay/internal/errors"
	"gorelay/util"
)

// Config holds every tuneable for a single gorelay run.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host    string
	Port    int
	Timeout time.Duration // dial timeout, 0 = wait forever

	// ── Relay ────────────────────────────────────────────────────────
	Format    string // chunk rendering: quoted, raw, hex
	HalfClose bool   // on stdin EOF shut only the write side

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string
	SSHKeepAlive   time.Duration // 0 = no keepalive requests

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	Quiet   bool
	DryRun  bool
}

// Default returns a Config pointing at the stock relay endpoint.
func Default() *Config {
	return &Config{
		Host:   DefaultHost,
		Port:   DefaultPort,
		Format: DefaultFormat,
	}
}

// Address returns host:port of the relay endpoint.
func (c *Config) Address() string {
	return util.FormatAddr(c.Host, c.Port)
}

// LogLevel maps Quiet/Verbose onto the logger verbosity scale.
func (c *Config) LogLevel() int {
	if c.Quiet {
		return 0
	}
	return 1 + c.Verbose
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "ops@jump.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &rlerr.ConfigError{
			Field:   "host",
			Message: "must not be empty",
			Hint:    "omit --host to use " + DefaultHost,
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &rlerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the relay listens on %d by default", DefaultPort),
		}
	}
	if c.Timeout < 0 {
		return &rlerr.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout,
			Message: "must not be negative",
		}
	}
	if c.SSHKeepAlive < 0 {
		return &rlerr.ConfigError{
			Field:   "ssh-keepalive",
			Value:   c.SSHKeepAlive,
			Message: "must not be negative",
		}
	}
	if !validFormat(c.Format) {
		return &rlerr.ConfigError{
			Field:   "format",
			Value:   c.Format,
			Message: "unknown output format",
			Hint:    "use one of: quoted, raw, hex",
		}
	}
	if c.Quiet && c.Verbose > 0 {
		return &rlerr.ConfigError{
			Field:   "quiet",
			Message: "-q and -v are mutually exclusive",
		}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &rlerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "tunnel host is required",
			Hint:    "expected [user@]host[:port]",
		}
	}
	return nil
}

func validFormat(f string) bool {
	switch f {
	case FormatQuoted, FormatRaw, FormatHex:
		return true
	}
	return false
}
