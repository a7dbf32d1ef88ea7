package codec

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var b64Decode [256]int8

func init() {
	for i := range b64Decode {
		b64Decode[i] = -1
	}
	for i := 0; i < len(b64Alphabet); i++ {
		b64Decode[b64Alphabet[i]] = int8(i)
	}
}

// Base64Encoder is a resumable base64 encoder: quartets accumulate 3
// input bytes at a time and a line feed is emitted every 19 quartets
// (76 data columns), per spec §4.2/§6.
type Base64Encoder struct {
	save     [3]byte
	saveLen  int
	quartets int // quartets emitted on the current line
}

func NewBase64Encoder() *Base64Encoder { return &Base64Encoder{} }

func (e *Base64Encoder) Reset() { *e = Base64Encoder{} }

func (e *Base64Encoder) Step(in []byte) []byte {
	out := make([]byte, 0, Base64EncodeLen(len(in)))
	buf := append(e.save[:e.saveLen], in...)
	e.saveLen = 0

	i := 0
	for ; i+3 <= len(buf); i += 3 {
		out = e.emitQuartet(out, buf[i], buf[i+1], buf[i+2], 4)
	}
	remaining := buf[i:]
	e.saveLen = copy(e.save[:], remaining)
	return out
}

func (e *Base64Encoder) Flush() []byte {
	var out []byte
	switch e.saveLen {
	case 1:
		out = e.emitQuartet(out, e.save[0], 0, 0, 2)
	case 2:
		out = e.emitQuartet(out, e.save[0], e.save[1], 0, 3)
	}
	e.saveLen = 0
	if e.quartets > 0 {
		out = append(out, '\n')
		e.quartets = 0
	}
	return out
}

// emitQuartet appends the base64 quartet for (b0,b1,b2), using only the
// first `n` output characters as real data (n=2 or 3 pads with '=' for a
// trailing partial group), and breaks the line every 19 quartets.
func (e *Base64Encoder) emitQuartet(out []byte, b0, b1, b2 byte, n int) []byte {
	c0 := b0 >> 2
	c1 := (b0&0x03)<<4 | b1>>4
	c2 := (b1&0x0f)<<2 | b2>>6
	c3 := b2 & 0x3f

	quartet := [4]byte{b64Alphabet[c0], b64Alphabet[c1], b64Alphabet[c2], b64Alphabet[c3]}
	if n < 4 {
		quartet[3] = '='
	}
	if n < 3 {
		quartet[2] = '='
	}
	out = append(out, quartet[:]...)
	e.quartets++
	if e.quartets == 19 {
		out = append(out, '\n')
		e.quartets = 0
	}
	return out
}

// Base64Decoder is a resumable base64 decoder. Non-alphabet bytes
// (including newlines) are skipped; up to two trailing '=' drop output
// bytes from the final group, per spec §4.2.
type Base64Decoder struct {
	group    [4]byte
	groupLen int
	pad      int // count of '=' seen in the current group
}

func NewBase64Decoder() *Base64Decoder { return &Base64Decoder{} }

func (d *Base64Decoder) Reset() { *d = Base64Decoder{} }

func (d *Base64Decoder) Step(in []byte) []byte {
	out := make([]byte, 0, Base64DecodeLen(len(in)))
	for _, c := range in {
		if c == '=' {
			if d.groupLen > 0 {
				d.group[d.groupLen] = 0
				d.groupLen++
				d.pad++
				if d.groupLen == 4 {
					out = d.flushGroup(out)
				}
			}
			continue
		}
		v := b64Decode[c]
		if v < 0 {
			continue // tolerate non-alphabet bytes
		}
		d.group[d.groupLen] = byte(v)
		d.groupLen++
		d.pad = 0
		if d.groupLen == 4 {
			out = d.flushGroup(out)
		}
	}
	return out
}

func (d *Base64Decoder) flushGroup(out []byte) []byte {
	g := d.group
	b0 := g[0]<<2 | g[1]>>4
	b1 := g[1]<<4 | g[2]>>2
	b2 := g[2]<<6 | g[3]
	n := 3 - d.pad
	if n < 0 {
		n = 0
	}
	full := [3]byte{b0, b1, b2}
	out = append(out, full[:n]...)
	d.groupLen = 0
	d.pad = 0
	return out
}

func (d *Base64Decoder) Flush() []byte {
	// A truncated trailing group (1-3 non-padded chars with no '=') is
	// tolerated: decode as many output bytes as the available bits
	// support and record nothing further, per spec §7 "codec
	// truncation."
	if d.groupLen == 0 {
		return nil
	}
	for d.groupLen < 4 {
		d.group[d.groupLen] = 0
		d.groupLen++
		d.pad++
	}
	return d.flushGroup(nil)
}
