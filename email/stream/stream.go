// Package stream provides the uniform byte-stream abstraction the parser
// and codecs run on: bounded substreams, buffering, and memory backing
// (spec §4.1). The disk-backed tier wraps crawshaw.io/iox, the same
// library the teacher uses for email.Part.Content (see
// email/msgcleaver/msgcleaver.go and email/msgbuilder/msgbuilder.go).
package stream

import (
	"errors"
	"io"
)

// Whence mirrors io.Seeker's constants under the names spec §4.1 uses.
type Whence int

const (
	Set Whence = iota
	Cur
	End
)

// ErrUnknownEnd is returned by Seek(End) when the stream's bound_end is
// not known (an "open" upper bound, e.g. a not-yet-fully-read part body).
var ErrUnknownEnd = errors.New("stream: seek from unknown end")

// Stream is the contract described in spec §4.1: read, write, flush,
// close, reset, seek, tell, length, eos, and substream. Implementations
// need not support every operation (a substream of a write-only stream
// need not support Write); unsupported operations return an error.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer

	// Flush pushes any buffered writes to the backing store.
	Flush() error
	// Seek repositions the stream; see Whence.
	Seek(offset int64, whence Whence) (int64, error)
	// Tell returns the current position.
	Tell() int64
	// Reset returns the position to BoundStart.
	Reset() error
	// Length returns BoundEnd-BoundStart, or -1 if BoundEnd is unknown.
	Length() int64
	// EOS reports whether the stream is at its bound_end (or, if that
	// bound is unknown, at the underlying end).
	EOS() bool
	// Substream opens a bounded view sharing this stream's backing
	// storage; start/end are absolute offsets. end may be -1 for an
	// open ("unknown") upper bound.
	Substream(start, end int64) (Stream, error)
}

// clampRead truncates n so a read never crosses boundEnd, matching the
// "operations outside bounds are truncated" rule in spec §4.1.
func clampRead(pos, boundEnd int64, want int) int {
	if boundEnd < 0 {
		return want
	}
	remaining := boundEnd - pos
	if remaining < 0 {
		remaining = 0
	}
	if int64(want) > remaining {
		return int(remaining)
	}
	return want
}
