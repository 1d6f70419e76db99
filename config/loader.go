package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GORELAY_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it before flag parsing
// so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GORELAY_HOST"); v != "" {
		cfg.Host = v
	}
	if p, err := ParsePort(os.Getenv("GORELAY_PORT")); err == nil {
		cfg.Port = p
	}
	if v := envInt("GORELAY_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := os.Getenv("GORELAY_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(v)
	}
	if envBool("GORELAY_HALF_CLOSE") {
		cfg.HalfClose = true
	}

	// SSH tunnel
	if v := os.Getenv("GORELAY_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("GORELAY_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GORELAY_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("GORELAY_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GORELAY_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GORELAY_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if v := envInt("GORELAY_SSH_KEEPALIVE"); v > 0 {
		cfg.SSHKeepAlive = secondsDuration(v)
	}

	// Output
	if v := envInt("GORELAY_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("GORELAY_QUIET") {
		cfg.Quiet = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
