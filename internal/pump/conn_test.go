package pump

import (
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// fakeConn is a scripted net.Conn.  Reads come from the chunks pushed
// with feed; every Write call is recorded separately so tests can check
// write boundaries.
type fakeConn struct {
	reads chan []byte
	rest  []byte

	mu          sync.Mutex
	writes      [][]byte
	writeErr    error
	readErr     error // returned once reads is drained and closed
	closes      int
	closeWrites int

	closed      chan struct{}
	closeOnce   sync.Once
	interrupted chan struct{}
	intOnce     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:       make(chan []byte, 64),
		closed:      make(chan struct{}),
		interrupted: make(chan struct{}),
	}
}

func (c *fakeConn) feed(chunks ...[]byte) {
	for _, b := range chunks {
		c.reads <- b
	}
}

// hangup makes further reads hit end of stream (or readErr).
func (c *fakeConn) hangup() { close(c.reads) }

func (c *fakeConn) Read(p []byte) (int, error) {
	if len(c.rest) > 0 {
		n := copy(p, c.rest)
		c.rest = c.rest[n:]
		return n, nil
	}
	select {
	case b, ok := <-c.reads:
		if !ok {
			c.mu.Lock()
			err := c.readErr
			c.mu.Unlock()
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		n := copy(p, b)
		c.rest = b[n:]
		return n, nil
	case <-c.closed:
		return 0, &net.OpError{Op: "read", Net: "tcp", Err: net.ErrClosed}
	case <-c.interrupted:
		return 0, &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}
	}
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return 0, &net.OpError{Op: "write", Net: "tcp", Err: net.ErrClosed}
	default:
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) CloseWrite() error {
	c.mu.Lock()
	c.closeWrites++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetDeadline(t time.Time) error {
	if !t.After(time.Now()) {
		c.intOnce.Do(func() { close(c.interrupted) })
	}
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error  { return c.SetDeadline(t) }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *fakeConn) LocalAddr() net.Addr                { return fakeAddr("local") }
func (c *fakeConn) RemoteAddr() net.Addr               { return fakeAddr("127.0.0.1:8124") }

func (c *fakeConn) recorded() (writes [][]byte, closes, closeWrites int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...), c.closes, c.closeWrites
}

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }
