package pump

import (
	"encoding/hex"
	"fmt"
	"io"

	"gorelay/config"
	rlerr "gorelay/internal/errors"
)

// Renderer writes one received chunk to w.
type Renderer func(w io.Writer, chunk []byte) error

// RendererFor returns the Renderer for a config format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case config.FormatQuoted, "":
		return RenderQuoted, nil
	case config.FormatRaw:
		return RenderRaw, nil
	case config.FormatHex:
		return RenderHex, nil
	default:
		return nil, &rlerr.ConfigError{
			Field:   "format",
			Value:   format,
			Message: "unknown output format",
		}
	}
}

// RenderQuoted prints the chunk as a Go-quoted string on its own line.
// Control bytes and invalid UTF-8 come out escaped, so what was on the
// wire stays visible instead of being decoded as text.
func RenderQuoted(w io.Writer, chunk []byte) error {
	_, err := fmt.Fprintf(w, "%q\n", chunk)
	return err
}

// RenderRaw copies the chunk through unchanged.
func RenderRaw(w io.Writer, chunk []byte) error {
	_, err := w.Write(chunk)
	return err
}

// RenderHex prints a hexdump -C style listing of the chunk.
func RenderHex(w io.Writer, chunk []byte) error {
	_, err := io.WriteString(w, hex.Dump(chunk))
	return err
}
