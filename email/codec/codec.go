// Package codec implements the resumable transfer-encoding state
// machines named in spec §4.2: base64, quoted-printable, uuencode, and
// RFC 2047 encoded-words. Each byte codec exposes Step/Flush so a caller
// can feed it data a chunk (or a byte) at a time and get back exactly
// the bytes produced so far — no pack example ships this kind of
// externally resumable cursor (the teacher always drives
// encoding/base64 and mime/quotedprintable as one-shot io.Writer chains,
// see email/msgbuilder/msgbuilder.go's lineBreakWriter), so this is
// hand-written against the output-sizing formulas spec §4.2 gives.
package codec

// Algorithm names a transfer-encoding.
type Algorithm int

const (
	SevenBit Algorithm = iota
	EightBit
	Binary
	Base64
	QuotedPrintable
	UUEncode
)

func (a Algorithm) String() string {
	switch a {
	case EightBit:
		return "8bit"
	case Binary:
		return "binary"
	case Base64:
		return "base64"
	case QuotedPrintable:
		return "quoted-printable"
	case UUEncode:
		return "x-uuencode"
	default:
		return "7bit"
	}
}

// ParseAlgorithm maps a Content-Transfer-Encoding token to an Algorithm,
// defaulting to SevenBit for anything unrecognized.
func ParseAlgorithm(s string) Algorithm {
	switch asciiLower(s) {
	case "8bit":
		return EightBit
	case "binary":
		return Binary
	case "base64":
		return Base64
	case "quoted-printable":
		return QuotedPrintable
	case "x-uuencode", "uuencode":
		return UUEncode
	default:
		return SevenBit
	}
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Codec is the common shape of every resumable codec in this package:
// feed it bytes with Step, and call Flush once at end-of-input to drain
// any carried-over state.
type Codec interface {
	Step(in []byte) []byte
	Flush() []byte
	Reset()
}

// NewEncoder returns a resumable encoder for algorithm a, or nil if a
// has no encoder (7bit/8bit/binary are identity transforms — callers
// should just copy bytes through unchanged).
func NewEncoder(a Algorithm) Codec {
	switch a {
	case Base64:
		return NewBase64Encoder()
	case QuotedPrintable:
		return NewQPEncoder()
	case UUEncode:
		return NewUUEncoder("")
	default:
		return nil
	}
}

// NewDecoder returns a resumable decoder for algorithm a, or nil for an
// identity transform.
func NewDecoder(a Algorithm) Codec {
	switch a {
	case Base64:
		return NewBase64Decoder()
	case QuotedPrintable:
		return NewQPDecoder()
	case UUEncode:
		return NewUUDecoder()
	default:
		return nil
	}
}

// Base64EncodeLen returns the exact upper bound on base64-encoded output
// size for n input bytes (spec §4.2).
func Base64EncodeLen(n int) int { return ceilDiv(n+2, 57)*77 + 77 }

// Base64DecodeLen returns the exact upper bound on base64-decoded output
// size for n input bytes.
func Base64DecodeLen(n int) int { return n + 3 }

// QPEncodeLen returns the exact upper bound on quoted-printable-encoded
// output size for n input bytes.
func QPEncodeLen(n int) int { return ceilDiv(n, 24)*74 + 74 }

// QPDecodeLen returns the exact upper bound on quoted-printable-decoded
// output size for n input bytes.
func QPDecodeLen(n int) int { return n + 3 }

// UUEncodeLen returns the exact upper bound on uuencoded output size for
// n input bytes.
func UUEncodeLen(n int) int { return ceilDiv(n+2, 45)*62 + 64 }

// UUDecodeLen returns the exact upper bound on uudecoded output size for
// n input bytes.
func UUDecodeLen(n int) int { return n + 3 }

func ceilDiv(a, b int) int { return (a + b - 1) / b }
