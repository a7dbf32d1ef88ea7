package codec

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"mimetree.dev/email/charset"
	"mimetree.dev/email/token"
)

// EncodeWord encodes a single run of text as exactly one RFC 2047
// "encoded-word" (=?charset?B?...?= or =?charset?Q?...?=); the text is
// never split across several words, so a long run yields one word
// longer than a folded header line. It chooses B
// vs Q by the same ≤17%-non-ASCII heuristic charset.BestEncoding uses
// for body content (spec §4.2's "encoded-word codec" shares the
// encoding heuristic with the body codecs). cs names the charset the
// text is already encoded in (e.g. "UTF-8").
func EncodeWord(text, cs string) string {
	if text == "" {
		return ""
	}
	enc := charset.BestEncoding([]byte(text))
	if enc == charset.Base64 {
		return encodeWordB(text, cs)
	}
	return encodeWordQ(text, cs)
}

func encodeWordB(text, cs string) string {
	e := NewBase64Encoder()
	var sb strings.Builder
	data := e.Step([]byte(text))
	data = append(data, e.Flush()...)
	// Base64Encoder inserts line breaks for body content; encoded-words
	// must not contain them, so fold decisions belong to the header
	// line-folder instead.
	for _, b := range data {
		if b == '\n' {
			continue
		}
		sb.WriteByte(b)
	}
	return "=?" + cs + "?B?" + sb.String() + "?="
}

const qpWordHex = "0123456789ABCDEF"

// encodeWordQ implements RFC 2047's "Q" encoding, which is quoted-printable
// with '_' standing in for a literal space and header-specials additionally
// escaped (distinct from the body quoted-printable codec, hence not reusing
// QPEncoder here).
func encodeWordQ(text, cs string) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		b := text[i]
		switch {
		case b == ' ':
			sb.WriteByte('_')
		case qWordSafe(b):
			sb.WriteByte(b)
		default:
			sb.WriteByte('=')
			sb.WriteByte(qpWordHex[b>>4])
			sb.WriteByte(qpWordHex[b&0x0f])
		}
	}
	return "=?" + cs + "?Q?" + sb.String() + "?="
}

func qWordSafe(b byte) bool {
	if b == '=' || b == '?' || b == '_' {
		return false
	}
	return b > 0x20 && b < 0x7f
}

// Compliance selects how strictly DecodeWord treats an unrecognized
// charset, per spec §6's rfc2047_compliance.
type Compliance int

const (
	// Loose returns the B/Q-decoded bytes without charset conversion
	// when the declared charset is unknown, rather than failing the parse.
	Loose Compliance = iota
	// Strict surfaces an unknown or unconvertible charset as an error.
	Strict
)

// DecodeWord decodes a single "=?charset?enc?text?=" encoded-word,
// returning the decoded UTF-8 text. It uses the charset package's
// pluggable iconv backend to convert from the declared charset.
func DecodeWord(word string, compliance Compliance) (string, error) {
	parts := strings.SplitN(word, "?", 5)
	if len(parts) != 5 || parts[0] != "=" {
		return "", errEncodedWord("malformed encoded-word")
	}
	cs, enc, text := parts[1], parts[2], parts[3]
	var raw []byte
	switch strings.ToUpper(enc) {
	case "B":
		d := NewBase64Decoder()
		raw = append(d.Step([]byte(text)), d.Flush()...)
	case "Q":
		raw = decodeQWord(text)
	default:
		return "", errEncodedWord("unknown encoded-word encoding " + strconv.Quote(enc))
	}
	r, err := charset.Default.Reader(charset.Canonical(cs), bytes.NewReader(raw))
	if err != nil {
		if compliance == Strict {
			return "", errEncodedWord("unknown charset " + strconv.Quote(cs))
		}
		return string(raw), nil // tolerant fallback: keep raw bytes
	}
	out, err := io.ReadAll(r)
	if err != nil {
		if compliance == Strict {
			return "", err
		}
		return string(raw), nil
	}
	return string(out), nil
}

func decodeQWord(s string) []byte {
	var out []byte
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '_':
			out = append(out, ' ')
		case b == '=' && i+2 < len(s):
			if hi, ok1 := hexVal(s[i+1]); ok1 {
				if lo, ok2 := hexVal(s[i+2]); ok2 {
					out = append(out, hi<<4|lo)
					i += 2
					continue
				}
			}
			out = append(out, b)
		default:
			out = append(out, b)
		}
	}
	return out
}

// DecodeHeaderText scans s for RFC 2047 encoded-words, decoding each and
// eliding whitespace that appears only *between* two encoded-words (RFC
// 2047 §6.2), while leaving all other text untouched.
func DecodeHeaderText(s string, compliance Compliance) string {
	var sb strings.Builder
	i := 0
	lastWasEncoded := false
	for i < len(s) {
		start := strings.Index(s[i:], "=?")
		if start < 0 {
			sb.WriteString(s[i:])
			break
		}
		start += i
		end := findEncodedWordEnd(s, start)
		if end < 0 {
			sb.WriteString(s[i:])
			break
		}
		between := s[i:start]
		if lastWasEncoded && isAllWSP(between) {
			// elide
		} else {
			sb.WriteString(between)
		}
		decoded, err := DecodeWord(s[start:end], compliance)
		if err != nil {
			sb.WriteString(s[start:end])
		} else {
			sb.WriteString(decoded)
		}
		lastWasEncoded = true
		i = end
	}
	return sb.String()
}

func isAllWSP(s string) bool {
	for _, r := range s {
		if !token.IsWSP(r) {
			return false
		}
	}
	return true
}

// findEncodedWordEnd returns the index just past the closing "?=" of the
// encoded-word beginning at s[start:], or -1 if s[start:] is not a
// well-formed encoded-word.
func findEncodedWordEnd(s string, start int) int {
	rest := s[start+2:]
	q1 := strings.IndexByte(rest, '?')
	if q1 < 0 {
		return -1
	}
	q2 := strings.IndexByte(rest[q1+1:], '?')
	if q2 < 0 {
		return -1
	}
	q2 += q1 + 1
	end := strings.Index(rest[q2+1:], "?=")
	if end < 0 {
		return -1
	}
	return start + 2 + q2 + 1 + end + 2
}

type errEncodedWord string

func (e errEncodedWord) Error() string { return string(e) }
