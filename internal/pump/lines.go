package pump

import (
	"bufio"
	"context"
	"io"
)

type lineResult struct {
	line []byte
	err  error
}

// LineReader hands out newline-terminated lines from r.  At most one
// read of r is in flight at a time, and a new one only starts when the
// caller asks for the next line.
//
// A blocking read cannot be interrupted in general (os.Stdin in
// particular), so Next returns as soon as ctx is done and leaves the
// pending read to finish on its own; a later Next picks up its result.
type LineReader struct {
	br      *bufio.Reader
	results chan lineResult
	pending bool
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		br:      bufio.NewReader(r),
		results: make(chan lineResult, 1),
	}
}

// Next returns the next line including its trailing '\n'.  At end of
// input a final unterminated line is returned together with io.EOF.
// Next must not be called concurrently.
func (lr *LineReader) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !lr.pending {
		lr.pending = true
		go func() {
			line, err := lr.br.ReadBytes('\n')
			lr.results <- lineResult{line: line, err: err}
		}()
	}

	select {
	case res := <-lr.results:
		lr.pending = false
		return res.line, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
