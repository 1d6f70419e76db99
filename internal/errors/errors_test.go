package errors

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	err := &NetworkError{Op: "dial", Addr: "127.0.0.1:8124", Err: fmt.Errorf("connection refused")}
	want := "dial 127.0.0.1:8124: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}
	if !Is(err, io.EOF) {
		t.Error("should unwrap to io.EOF")
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "jump.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake jump.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, err.Err) {
		t.Error("should unwrap to inner error")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   99999,
				Message: "out of range 1-65535",
				Hint:    "the relay listens on 8124 by default",
			},
			want: "config: --port=99999: out of range 1-65535\n  hint: the relay listens on 8124 by default",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "host",
				Message: "must not be empty",
			},
			want: "config: --host: must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestIsDial(t *testing.T) {
	if !IsDial(fmt.Errorf("connect: %w", Wrap("dial", "x:1", syscall.ECONNREFUSED))) {
		t.Error("wrapped dial NetworkError should be a dial error")
	}
	if IsDial(Wrap("read", "x:1", io.EOF)) {
		t.Error("read NetworkError is not a dial error")
	}
	if IsDial(fmt.Errorf("boom")) {
		t.Error("plain error is not a dial error")
	}
}

func TestClassification(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}
	pipe := &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.EPIPE)}
	closed := &net.OpError{Op: "read", Net: "tcp", Err: net.ErrClosed}
	deadline := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}

	tests := []struct {
		name        string
		err         error
		reset       bool
		cancel      bool
		termination bool
	}{
		{"nil", nil, false, false, true},
		{"eof", io.EOF, false, false, true},
		{"reset", reset, true, false, true},
		{"broken pipe", pipe, true, false, true},
		{"closed conn", closed, false, true, true},
		{"interrupted read", deadline, false, true, true},
		{"context cancelled", fmt.Errorf("pump: %w", context.Canceled), false, true, true},
		{"session closed", ErrSessionClosed, false, true, true},
		{"unexpected eof", io.ErrUnexpectedEOF, false, false, false},
		{"refused", syscall.ECONNREFUSED, false, false, false},
		{"plain", fmt.Errorf("boom"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPeerReset(tt.err); got != tt.reset {
				t.Errorf("IsPeerReset = %v, want %v", got, tt.reset)
			}
			if got := IsCancellation(tt.err); got != tt.cancel {
				t.Errorf("IsCancellation = %v, want %v", got, tt.cancel)
			}
			if got := IsTermination(tt.err); got != tt.termination {
				t.Errorf("IsTermination = %v, want %v", got, tt.termination)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrSessionClosed, ErrIllegalTransition, ErrNotConnected, ErrAuthFailed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
