package codec

// uuencode packs 3 bytes into 4 printable characters (offset-by-0x20
// from the 6-bit value, with 0 mapping to '`' instead of space), with
// each line prefixed by a length byte; a lone '`' (zero-length) line
// precedes the closing "end" line, per spec §4.2.

func uuEnc(b byte) byte {
	b &= 0x3f
	if b == 0 {
		return '`'
	}
	return b + 0x20
}

func uuDec(c byte) byte {
	if c == '`' {
		return 0
	}
	return (c - 0x20) & 0x3f
}

const uuGroupBytes = 45 // bytes per output line (15 groups of 3)

// UUEncoder is a resumable uuencode encoder. name is written as the
// "begin 644 name" header emitted by the first Step call.
type UUEncoder struct {
	name      string
	wroteHead bool
	save      [uuGroupBytes]byte
	saveLen   int
}

func NewUUEncoder(name string) *UUEncoder {
	if name == "" {
		name = "attachment"
	}
	return &UUEncoder{name: name}
}

func (e *UUEncoder) Reset() {
	name := e.name
	*e = UUEncoder{name: name}
}

func (e *UUEncoder) Step(in []byte) []byte {
	var out []byte
	if !e.wroteHead {
		out = append(out, "begin 644 "...)
		out = append(out, e.name...)
		out = append(out, '\n')
		e.wroteHead = true
	}

	buf := append(e.save[:e.saveLen], in...)
	e.saveLen = 0

	i := 0
	for i+uuGroupBytes <= len(buf) {
		out = e.emitLine(out, buf[i:i+uuGroupBytes])
		i += uuGroupBytes
	}
	e.saveLen = copy(e.save[:], buf[i:])
	return out
}

func (e *UUEncoder) emitLine(out []byte, group []byte) []byte {
	out = append(out, uuEnc(byte(len(group))))
	for i := 0; i < len(group); i += 3 {
		var b0, b1, b2 byte
		b0 = group[i]
		if i+1 < len(group) {
			b1 = group[i+1]
		}
		if i+2 < len(group) {
			b2 = group[i+2]
		}
		out = append(out,
			uuEnc(b0>>2),
			uuEnc(b0<<4|b1>>4),
			uuEnc(b1<<2|b2>>6),
			uuEnc(b2),
		)
	}
	out = append(out, '\n')
	return out
}

func (e *UUEncoder) Flush() []byte {
	var out []byte
	if !e.wroteHead {
		out = append(out, "begin 644 "...)
		out = append(out, e.name...)
		out = append(out, '\n')
		e.wroteHead = true
	}
	if e.saveLen > 0 {
		out = e.emitLine(out, e.save[:e.saveLen])
		e.saveLen = 0
	}
	out = append(out, uuEnc(0), '\n')
	out = append(out, "end\n"...)
	return out
}

// UUDecoder is a resumable uudecode decoder. "begin ... " and "end"
// lines are recognized and discarded; data lines are decoded by their
// declared length byte.
type UUDecoder struct {
	lineBuf  []byte
	sawBegin bool
	done     bool
}

func NewUUDecoder() *UUDecoder { return &UUDecoder{} }

func (d *UUDecoder) Reset() { *d = UUDecoder{} }

func (d *UUDecoder) Step(in []byte) []byte {
	if d.done {
		return nil
	}
	var out []byte
	d.lineBuf = append(d.lineBuf, in...)

	for {
		nl := indexByte(d.lineBuf, '\n')
		if nl < 0 {
			break
		}
		line := d.lineBuf[:nl]
		d.lineBuf = d.lineBuf[nl+1:]
		out = d.decodeLine(out, line)
		if d.done {
			break
		}
	}
	return out
}

func (d *UUDecoder) decodeLine(out []byte, line []byte) []byte {
	if !d.sawBegin {
		if len(line) >= 5 && string(line[:5]) == "begin" {
			d.sawBegin = true
		}
		return out
	}
	if string(line) == "end" {
		d.done = true
		return out
	}
	if len(line) == 0 {
		return out
	}
	n := int(uuDec(line[0]))
	if n == 0 {
		return out
	}
	data := line[1:]
	produced := 0
	for i := 0; i+4 <= len(data) && produced < n; i += 4 {
		c0 := uuDec(data[i])
		c1 := uuDec(data[i+1])
		c2 := uuDec(data[i+2])
		c3 := uuDec(data[i+3])
		group := [3]byte{c0<<2 | c1>>4, c1<<4 | c2>>2, c2<<6 | c3}
		take := n - produced
		if take > 3 {
			take = 3
		}
		out = append(out, group[:take]...)
		produced += take
	}
	return out
}

func (d *UUDecoder) Flush() []byte {
	d.lineBuf = nil
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
