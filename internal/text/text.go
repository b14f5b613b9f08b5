package text

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrInvalidArgument is returned when a value passed in was not produced the
// way the callee requires.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFromBuffer is returned by BufferOf for snapshots that no Buffer produced.
var ErrNotFromBuffer = fmt.Errorf("%w: snapshot was not produced by a buffer", ErrInvalidArgument)

// SourceText is an immutable full-text snapshot. Every edit produces a new
// SourceText; existing values are never changed.
type SourceText struct {
	content string
	buffer  *Buffer
}

// New returns a snapshot of content that belongs to no buffer.
func New(content string) SourceText {
	return SourceText{content: content}
}

// String returns the full text.
func (t SourceText) String() string {
	return t.content
}

// Len returns the length of the text in bytes.
func (t SourceText) Len() int {
	return len(t.content)
}

// Equal reports whether two snapshots hold the same text, regardless of origin.
func (t SourceText) Equal(other SourceText) bool {
	return t.content == other.content
}

// Checksum returns the blake3-256 digest of the text.
func (t SourceText) Checksum() [32]byte {
	return blake3.Sum256([]byte(t.content))
}

// FormatChecksum returns the hex form of a checksum, as used in log output.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// BufferOf returns the buffer that produced t. It is the check for a host
// recovering its surface from a snapshot: snapshots made with New, or by
// another surface implementation, fail with ErrNotFromBuffer.
func BufferOf(t SourceText) (*Buffer, error) {
	if t.buffer == nil {
		return nil, ErrNotFromBuffer
	}
	return t.buffer, nil
}
