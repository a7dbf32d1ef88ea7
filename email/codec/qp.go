package codec

// QPEncoder is a resumable quoted-printable encoder. Trailing whitespace
// on a line is held back (not emitted) until either a non-whitespace
// byte or a newline is seen, so a line-final space or tab is always
// escaped per RFC 2045 §6.7 rule 3, matching spec §4.2's "trailing-space
// delay" requirement.
type QPEncoder struct {
	col        int // output columns written on the current line
	pendingWS  []byte
	sawContent bool
}

func NewQPEncoder() *QPEncoder { return &QPEncoder{} }

func (e *QPEncoder) Reset() { *e = QPEncoder{} }

const qpLineLimit = 75 // leave room for a soft-break "="

func (e *QPEncoder) Step(in []byte) []byte {
	var out []byte
	for _, b := range in {
		switch {
		case b == '\n':
			out = e.escapePendingTrailing(out)
			out = append(out, '\n')
			e.col = 0
		case b == ' ' || b == '\t':
			e.pendingWS = append(e.pendingWS, b)
			continue
		default:
			out = e.flushPendingLiteral(out)
			out = e.emitByte(out, b)
		}
	}
	return out
}

// flushPendingLiteral emits any held-back whitespace as literal bytes
// (it was not line-trailing after all), soft-breaking as needed.
func (e *QPEncoder) flushPendingLiteral(out []byte) []byte {
	for _, ws := range e.pendingWS {
		out = e.emitByte(out, ws)
	}
	e.pendingWS = e.pendingWS[:0]
	return out
}

const qpHex = "0123456789ABCDEF"

// escapePendingTrailing emits held-back whitespace as "=XX" escapes: it
// is trailing on the line, where RFC 2045 §6.7 rule 3 forbids a literal
// space or tab.
func (e *QPEncoder) escapePendingTrailing(out []byte) []byte {
	for _, ws := range e.pendingWS {
		if e.col >= qpLineLimit-3 {
			out = append(out, '=', '\n')
			e.col = 0
		}
		out = append(out, '=', qpHex[ws>>4], qpHex[ws&0x0f])
		e.col += 3
	}
	e.pendingWS = e.pendingWS[:0]
	return out
}

func (e *QPEncoder) emitByte(out []byte, b byte) []byte {
	if isQPLiteral(b) {
		if e.col >= qpLineLimit {
			out = append(out, '=', '\n')
			e.col = 0
		}
		out = append(out, b)
		e.col++
		return out
	}
	if e.col >= qpLineLimit-3 {
		out = append(out, '=', '\n')
		e.col = 0
	}
	const hex = "0123456789ABCDEF"
	out = append(out, '=', hex[b>>4], hex[b&0x0f])
	e.col += 3
	return out
}

func isQPLiteral(b byte) bool {
	if b == '=' {
		return false
	}
	return b == '\t' || (b >= 0x20 && b <= 0x7e)
}

func (e *QPEncoder) Flush() []byte {
	// Any still-pending trailing whitespace is at end-of-input (no
	// following newline): it must be escaped, not emitted literally.
	out := e.escapePendingTrailing(nil)
	e.col = 0
	return out
}

// QPDecoder is a resumable quoted-printable decoder. A trailing "=" at
// end of a chunk is held back until the next chunk supplies the rest of
// the escape (or Flush, where it is dropped as a soft line break).
type QPDecoder struct {
	pending []byte // 0-2 bytes: "=" or "=X" awaiting completion
}

func NewQPDecoder() *QPDecoder { return &QPDecoder{} }

func (d *QPDecoder) Reset() { *d = QPDecoder{} }

func (d *QPDecoder) Step(in []byte) []byte {
	var out []byte
	buf := append(d.pending, in...)
	d.pending = nil

	i := 0
	for i < len(buf) {
		b := buf[i]
		if b != '=' {
			out = append(out, b)
			i++
			continue
		}
		// b == '='
		if i+1 >= len(buf) {
			d.pending = append(d.pending, buf[i:]...)
			break
		}
		if buf[i+1] == '\n' {
			i += 2 // soft line break: drop it
			continue
		}
		if buf[i+1] == '\r' {
			if i+2 >= len(buf) {
				d.pending = append(d.pending, buf[i:]...)
				break
			}
			if buf[i+2] == '\n' {
				i += 3
				continue
			}
			i += 2
			continue
		}
		if i+2 >= len(buf) {
			d.pending = append(d.pending, buf[i:]...)
			break
		}
		hi, ok1 := hexVal(buf[i+1])
		lo, ok2 := hexVal(buf[i+2])
		if ok1 && ok2 {
			out = append(out, hi<<4|lo)
			i += 3
			continue
		}
		// Not a valid escape: tolerate it by passing '=' through literally.
		out = append(out, '=')
		i++
	}
	return out
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

func (d *QPDecoder) Flush() []byte {
	// A dangling "=" or "=X" at end-of-input is an incomplete escape;
	// per spec §7 tolerant-decode it is dropped rather than erroring.
	d.pending = nil
	return nil
}
