package stream

import "io"

// BufferMode selects how BufferedStream buffers its underlying stream,
// per spec §4.1.
type BufferMode int

const (
	// BlockRead buffers fixed-size (4 KiB) reads.
	BlockRead BufferMode = iota
	// BlockWrite buffers fixed-size (4 KiB) writes.
	BlockWrite
	// CacheRead grows an internal cache as needed, so seeking backward
	// over a non-seekable underlying stream is still possible.
	CacheRead
)

const blockSize = 4096

// BufferedStream wraps another Stream with one of three buffering
// disciplines (spec §4.1).
type BufferedStream struct {
	under Stream
	mode  BufferMode

	// block-read / block-write buffer
	buf    []byte
	bufPos int

	// cache-read: all bytes ever seen from under, plus our logical
	// position within it.
	cache    []byte
	cachePos int64
	atEOS    bool
}

// NewBufferedStream wraps under with the given buffering mode.
func NewBufferedStream(under Stream, mode BufferMode) *BufferedStream {
	return &BufferedStream{under: under, mode: mode}
}

func (s *BufferedStream) Read(p []byte) (int, error) {
	switch s.mode {
	case CacheRead:
		return s.cacheRead(p)
	default:
		if s.bufPos < len(s.buf) {
			n := copy(p, s.buf[s.bufPos:])
			s.bufPos += n
			return n, nil
		}
		if len(p) >= blockSize {
			return s.under.Read(p)
		}
		s.buf = make([]byte, blockSize)
		n, err := s.under.Read(s.buf)
		s.buf = s.buf[:n]
		s.bufPos = 0
		if n == 0 {
			return 0, err
		}
		m := copy(p, s.buf)
		s.bufPos = m
		return m, nil
	}
}

// cacheRead serves backward seeks from the cache and transparently
// grows the cache on forward reads, per spec §4.1's "In cache-read, seek
// backward is served from the cache; forward seek past cached data
// buffers the skipped bytes first."
func (s *BufferedStream) cacheRead(p []byte) (int, error) {
	if s.cachePos < int64(len(s.cache)) {
		n := copy(p, s.cache[s.cachePos:])
		s.cachePos += int64(n)
		return n, nil
	}
	if s.atEOS {
		return 0, io.EOF
	}
	n, err := s.under.Read(p)
	if n > 0 {
		s.cache = append(s.cache, p[:n]...)
		s.cachePos += int64(n)
	}
	if n == 0 {
		s.atEOS = true
	}
	return n, err
}

func (s *BufferedStream) Write(p []byte) (int, error) {
	if s.mode != BlockWrite {
		return s.under.Write(p)
	}
	written := 0
	for len(p) > 0 {
		room := blockSize - len(s.buf)
		chunk := p
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		s.buf = append(s.buf, chunk...)
		written += len(chunk)
		p = p[len(chunk):]
		if len(s.buf) == blockSize {
			if err := s.flushBlockWrite(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (s *BufferedStream) flushBlockWrite() error {
	if len(s.buf) == 0 {
		return nil
	}
	_, err := s.under.Write(s.buf)
	s.buf = s.buf[:0]
	return err
}

func (s *BufferedStream) Flush() error {
	if s.mode == BlockWrite {
		if err := s.flushBlockWrite(); err != nil {
			return err
		}
	}
	return s.under.Flush()
}

func (s *BufferedStream) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.under.Close()
}

func (s *BufferedStream) Seek(offset int64, whence Whence) (int64, error) {
	if s.mode == CacheRead {
		var base int64
		switch whence {
		case Set:
			base = 0
		case Cur:
			base = s.cachePos
		case End:
			// Drain the underlying stream into the cache first.
			buf := make([]byte, blockSize)
			for !s.atEOS {
				n, err := s.under.Read(buf)
				if n > 0 {
					s.cache = append(s.cache, buf[:n]...)
				}
				if n == 0 || err != nil {
					s.atEOS = true
				}
			}
			base = int64(len(s.cache))
		}
		pos := base + offset
		if pos < 0 {
			pos = 0
		}
		if pos > int64(len(s.cache)) && !s.atEOS {
			// Forward seek past cached data: buffer the skipped bytes.
			need := pos - int64(len(s.cache))
			buf := make([]byte, blockSize)
			for need > 0 && !s.atEOS {
				want := buf
				if int64(len(want)) > need {
					want = want[:need]
				}
				n, err := s.under.Read(want)
				if n > 0 {
					s.cache = append(s.cache, want[:n]...)
					need -= int64(n)
				}
				if n == 0 || err != nil {
					s.atEOS = true
				}
			}
		}
		s.cachePos = pos
		return pos, nil
	}
	s.buf = nil
	s.bufPos = 0
	return s.under.Seek(offset, whence)
}

func (s *BufferedStream) Tell() int64 {
	if s.mode == CacheRead {
		return s.cachePos
	}
	return s.under.Tell()
}

func (s *BufferedStream) Reset() error {
	_, err := s.Seek(0, Set)
	return err
}

func (s *BufferedStream) Length() int64 { return s.under.Length() }

func (s *BufferedStream) EOS() bool {
	if s.mode == CacheRead {
		return s.atEOS && s.cachePos >= int64(len(s.cache))
	}
	return s.bufPos >= len(s.buf) && s.under.EOS()
}

func (s *BufferedStream) Substream(start, end int64) (Stream, error) {
	return s.under.Substream(start, end)
}

var _ io.ReadWriteCloser = (*BufferedStream)(nil)
