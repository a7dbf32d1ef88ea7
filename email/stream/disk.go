package stream

import (
	"context"
	"io"

	"crawshaw.io/iox"
)

// DiskFiler creates disk-backed streams for large part bodies, the same
// role crawshaw.io/iox.Filer plays for email.Part.Content in the teacher's
// email/msgcleaver and email/msgbuilder packages.
type DiskFiler struct {
	filer *iox.Filer
}

// NewDiskFiler wraps an iox.Filer. maxInMemory bytes are buffered in
// memory before iox spills to a temp file (0 uses iox's default).
func NewDiskFiler(maxInMemory int) *DiskFiler {
	return &DiskFiler{filer: iox.NewFiler(maxInMemory)}
}

// Shutdown releases any temp files the filer created.
func (f *DiskFiler) Shutdown(ctx context.Context) error {
	return f.filer.Shutdown(ctx)
}

// New returns a new, empty, unbounded disk-backed stream.
func (f *DiskFiler) New() *DiskStream {
	return &DiskStream{buf: f.filer.BufferFile(0), boundEnd: -1}
}

// DiskStream adapts an iox.BufferFile to the Stream interface.
type DiskStream struct {
	buf        *iox.BufferFile
	boundStart int64
	boundEnd   int64 // -1 means unbounded
}

func (d *DiskStream) Read(p []byte) (int, error) {
	n := clampRead(d.tell(), d.boundEnd, len(p))
	if n == 0 {
		return 0, io.EOF
	}
	return d.buf.Read(p[:n])
}

func (d *DiskStream) Write(p []byte) (int, error) {
	n := len(p)
	if d.boundEnd >= 0 {
		n = clampRead(d.tell(), d.boundEnd, len(p))
	}
	written, err := d.buf.Write(p[:n])
	if d.boundEnd >= 0 {
		if pos := d.tell(); pos > d.boundEnd {
			d.boundEnd = pos
		}
	}
	return written, err
}

func (d *DiskStream) Flush() error { return nil }
func (d *DiskStream) Close() error { return d.buf.Close() }

func (d *DiskStream) tell() int64 {
	pos, _ := d.buf.Seek(0, 1) // io.SeekCurrent
	return pos
}

func (d *DiskStream) Seek(offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case Set:
		base = d.boundStart
	case Cur:
		base = d.tell()
	case End:
		if d.boundEnd < 0 {
			return 0, ErrUnknownEnd
		}
		base = d.boundEnd
	}
	pos := base + offset
	return d.buf.Seek(pos, 0) // io.SeekStart
}

func (d *DiskStream) Tell() int64 { return d.tell() - d.boundStart }

func (d *DiskStream) Reset() error {
	_, err := d.buf.Seek(d.boundStart, 0)
	return err
}

func (d *DiskStream) Length() int64 {
	if d.boundEnd < 0 {
		return -1
	}
	return d.boundEnd - d.boundStart
}

func (d *DiskStream) EOS() bool {
	if d.boundEnd >= 0 {
		return d.tell() >= d.boundEnd
	}
	return d.tell() >= d.buf.Size()
}

// Substream returns a bounded view over the same iox.BufferFile. The
// view and its parent share the file's single read/write position: the
// view is not moved to start until Reset or Seek is called on it, and
// reading, writing or seeking either one moves the other.
func (d *DiskStream) Substream(start, end int64) (Stream, error) {
	return &DiskStream{buf: d.buf, boundStart: start, boundEnd: end}, nil
}

// Size returns the total number of bytes written to the stream so far.
func (d *DiskStream) Size() int64 { return d.buf.Size() }
