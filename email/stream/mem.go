package stream

import (
	"io"
	"sync"
)

// backing is the shared growable byte array behind a MemStream and all
// of its substreams. Go's garbage collector retires the "manual ref
// counting" design note in spec §9 (DESIGN NOTES, "Manual ref counting of
// streams"): a substream simply holds a pointer to the same backing, which
// keeps it alive for as long as any view of it is reachable.
type backing struct {
	mu   sync.Mutex
	data []byte
}

func (b *backing) ensure(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > int64(len(b.data)) {
		grown := make([]byte, n)
		copy(grown, b.data)
		b.data = grown
	}
}

// MemStream is a memory-backed Stream with a growable byte array;
// writes extend its length when unbounded (spec §4.1 "Memory-backed
// stream").
type MemStream struct {
	b          *backing
	pos        int64
	boundStart int64
	boundEnd   int64 // -1 means unbounded
}

// NewMemStream returns an empty, unbounded, writable memory stream.
func NewMemStream() *MemStream {
	return &MemStream{b: &backing{}, boundEnd: -1}
}

// NewMemStreamBytes returns a memory stream pre-populated with data's
// contents (copied), bounded to exactly len(data).
func NewMemStreamBytes(data []byte) *MemStream {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &MemStream{b: &backing{data: cp}, boundEnd: int64(len(cp))}
}

func (m *MemStream) Read(p []byte) (int, error) {
	m.b.mu.Lock()
	avail := int64(len(m.b.data)) - m.pos
	m.b.mu.Unlock()
	if m.boundEnd >= 0 {
		if bend := m.boundEnd - m.pos; bend < avail {
			avail = bend
		}
	}
	if avail <= 0 {
		return 0, io.EOF // EOS
	}
	n := clampRead(m.pos, m.boundEnd, len(p))
	if int64(n) > avail {
		n = int(avail)
	}
	m.b.mu.Lock()
	copy(p[:n], m.b.data[m.pos:m.pos+int64(n)])
	m.b.mu.Unlock()
	m.pos += int64(n)
	return n, nil
}

func (m *MemStream) Write(p []byte) (int, error) {
	n := len(p)
	if m.boundEnd >= 0 {
		n = clampRead(m.pos, m.boundEnd, len(p))
	}
	end := m.pos + int64(n)
	m.b.ensure(end)
	m.b.mu.Lock()
	copy(m.b.data[m.pos:end], p[:n])
	m.b.mu.Unlock()
	m.pos = end
	if m.boundEnd >= 0 && m.pos > m.boundEnd {
		m.boundEnd = m.pos
	}
	return n, nil
}

func (m *MemStream) Flush() error { return nil }
func (m *MemStream) Close() error { return nil }

func (m *MemStream) Seek(offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case Set:
		base = m.boundStart
	case Cur:
		base = m.pos
	case End:
		if m.boundEnd < 0 {
			return 0, ErrUnknownEnd
		}
		base = m.boundEnd
	}
	pos := base + offset
	if pos < m.boundStart {
		pos = m.boundStart
	}
	m.pos = pos
	return pos - m.boundStart, nil
}

func (m *MemStream) Tell() int64 { return m.pos }

func (m *MemStream) Reset() error {
	m.pos = m.boundStart
	return nil
}

func (m *MemStream) Length() int64 {
	if m.boundEnd < 0 {
		return -1
	}
	return m.boundEnd - m.boundStart
}

func (m *MemStream) EOS() bool {
	if m.boundEnd < 0 {
		m.b.mu.Lock()
		defer m.b.mu.Unlock()
		return m.pos >= int64(len(m.b.data))
	}
	return m.pos >= m.boundEnd
}

// Substream returns a bounded view sharing this stream's backing array.
// Per spec §4.1, closing a substream does not propagate to its parent.
func (m *MemStream) Substream(start, end int64) (Stream, error) {
	return &MemStream{b: m.b, pos: start, boundStart: start, boundEnd: end}, nil
}

// Bytes returns the bounded region's current contents without
// consuming the stream's position.
func (m *MemStream) Bytes() []byte {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	end := m.boundEnd
	if end < 0 || end > int64(len(m.b.data)) {
		end = int64(len(m.b.data))
	}
	start := m.boundStart
	if start > end {
		start = end
	}
	out := make([]byte, end-start)
	copy(out, m.b.data[start:end])
	return out
}
