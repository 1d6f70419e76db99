// Package metrics tracks traffic statistics of a relay session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Collector counts what crossed the relay in each direction.
type Collector struct {
	linesSent      atomic.Int64
	bytesSent      atomic.Int64
	chunksReceived atomic.Int64
	bytesReceived  atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	connectedAt  time.Time
	closedAt     time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session ──────────────────────────────────────────────────────────

// Connected records the moment the connection came up.
func (c *Collector) Connected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.connectedAt = time.Now()
	c.mu.Unlock()
}

// Closed records the moment the connection was torn down.
func (c *Collector) Closed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.closedAt = time.Now()
	c.mu.Unlock()
}

// ── Uplink ───────────────────────────────────────────────────────────

// LineSent records one line of n bytes written to the connection.
func (c *Collector) LineSent(n int) {
	if c == nil {
		return
	}
	c.linesSent.Add(1)
	c.bytesSent.Add(int64(n))
}

// LinesSent returns the number of lines forwarded upstream.
func (c *Collector) LinesSent() int64 {
	if c == nil {
		return 0
	}
	return c.linesSent.Load()
}

// BytesSent returns the number of bytes forwarded upstream.
func (c *Collector) BytesSent() int64 {
	if c == nil {
		return 0
	}
	return c.bytesSent.Load()
}

// ── Downlink ─────────────────────────────────────────────────────────

// ChunkReceived records one chunk of n bytes read from the connection.
func (c *Collector) ChunkReceived(n int) {
	if c == nil {
		return
	}
	c.chunksReceived.Add(1)
	c.bytesReceived.Add(int64(n))
}

// ChunksReceived returns the number of chunks printed.
func (c *Collector) ChunksReceived() int64 {
	if c == nil {
		return 0
	}
	return c.chunksReceived.Load()
}

// BytesReceived returns the number of bytes read from the peer.
func (c *Collector) BytesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.bytesReceived.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and keeps the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	Connected        string `json:"connected,omitempty"`
	Duration         string `json:"duration,omitempty"`
	LinesSent        int64  `json:"lines_sent"`
	BytesSent        int64  `json:"bytes_sent"`
	ChunksReceived   int64  `json:"chunks_received"`
	BytesReceived    int64  `json:"bytes_received"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Millisecond).String(),
		LinesSent:        c.linesSent.Load(),
		BytesSent:        c.bytesSent.Load(),
		ChunksReceived:   c.chunksReceived.Load(),
		BytesReceived:    c.bytesReceived.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
		LastErrorMessage: c.lastErrorMsg,
	}
	if !c.connectedAt.IsZero() {
		s.Connected = c.connectedAt.Format(time.RFC3339)
		end := c.closedAt
		if end.IsZero() {
			end = time.Now()
		}
		s.Duration = end.Sub(c.connectedAt).Truncate(time.Millisecond).String()
	}
	return s
}

// Summary renders the traffic counters as one human-readable line.
func (c *Collector) Summary() string {
	s := c.Snapshot()
	return fmt.Sprintf("sent %d bytes in %d lines, received %d bytes in %d chunks",
		s.BytesSent, s.LinesSent, s.BytesReceived, s.ChunksReceived)
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
