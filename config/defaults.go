package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultHost is the address the relay endpoint listens on.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the relay endpoint's TCP port.
	DefaultPort = 8124

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// ChunkSize is the largest number of bytes one downlink read
	// hands to the renderer.
	ChunkSize = 1024
)

// Output formats for received chunks.
const (
	FormatQuoted = "quoted"
	FormatRaw    = "raw"
	FormatHex    = "hex"

	DefaultFormat = FormatQuoted
)
