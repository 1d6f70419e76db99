// Package cmd wires up the CLI flags and dispatches to the relay core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"gorelay/config"
	"gorelay/internal/core"
	rlerr "gorelay/internal/errors"
	"gorelay/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gorelay/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdio bundles the process streams so tests can substitute them.
type stdio struct {
	in       io.Reader
	out, err io.Writer
}

// Execute parses args and runs one relay session.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, stdio{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func execute(ctx context.Context, args []string, std stdio) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("gorelay", flag.ContinueOnError)
	fs.SetOutput(std.err)

	// ── endpoint ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "Relay endpoint host")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Relay endpoint port")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Connect timeout in seconds (0 = none)")

	// ── relay ────────────────────────────────────────────────────
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Output format: quoted, raw, hex")
	fs.BoolVar(&cfg.HalfClose, "half-close", cfg.HalfClose, "On stdin EOF close only the sending side")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the endpoint via SSH jump host [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	keepAliveSec := int(cfg.SSHKeepAlive / time.Second)
	fs.IntVar(&keepAliveSec, "ssh-keepalive", keepAliveSec, "SSH keepalive interval in seconds (0 = off)")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Only report errors")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate settings and print the target without connecting")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(std.err, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(std.err, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(std.out, "gorelay %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --host and --port)", fs.Arg(0))
	}

	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.SSHKeepAlive = time.Duration(keepAliveSec) * time.Second

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DryRun {
		printPlan(std.out, cfg)
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.LogLevel())
	logger.SetOutput(std.err)

	if isTerminal(std.in) {
		logger.Verbose("reading lines from the terminal; Ctrl-D ends input")
	}

	mode, err := core.Build(cfg, logger, core.WithIO(std.in, std.out))
	if err != nil {
		return err
	}

	err = mode.Run(ctx)
	if ctx.Err() != nil && (err == nil || rlerr.IsCancellation(err)) {
		// Shown even with -q.
		fmt.Fprintln(std.err, "interrupted, exiting")
		return nil
	}
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func printPlan(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "target:  %s\n", cfg.Address())
	if cfg.TunnelEnabled {
		fmt.Fprintf(w, "via:     ssh %s\n", util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	fmt.Fprintf(w, "format:  %s\n", cfg.Format)
	if cfg.HalfClose {
		fmt.Fprintln(w, "stdin:   half-close on EOF")
	}
	if cfg.Timeout > 0 {
		fmt.Fprintf(w, "timeout: %s\n", cfg.Timeout)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `gorelay – line relay for a local TCP endpoint v%s

Sends each line typed on stdin to the endpoint and prints every chunk
the endpoint sends back.

Usage:
  gorelay [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  gorelay                                   Relay to 127.0.0.1:8124
  gorelay -p 9000 --format raw              Other port, print bytes as-is
  printf 'ping\n' | gorelay --half-close    Send, then wait for the reply
  gorelay -T ops@bastion -H 10.0.0.5        Reach the endpoint through SSH
`)
}
