// Package charset canonicalizes MIME charset names, scans text for 8-bit
// bytes, and picks a transfer encoding heuristically. The actual bytes <->
// UTF-8 conversion is delegated to a pluggable IconvBackend (spec §6's
// "Iconv/charset backend" collaborator); see iconv.go for the default
// golang.org/x/text implementation.
package charset

import "strings"

// Canonical maps a handful of common aliases to their canonical MIME
// names. Unknown names are returned trimmed and lower-cased, matching
// the spirit of gmime's alias table without trying to replicate it byte
// for byte.
func Canonical(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "", "us-ascii", "ascii", "ansi_x3.4-1968":
		return "us-ascii"
	case "utf-8", "utf8":
		return "UTF-8"
	case "iso-8859-1", "iso8859-1", "latin1", "l1":
		return "iso-8859-1"
	case "windows-1252", "cp1252", "ms-ansi":
		return "windows-1252"
	case "windows-1250", "cp1250":
		return "windows-1250"
	case "windows-1251", "cp1251":
		return "windows-1251"
	case "shift_jis", "shift-jis", "sjis":
		return "shift_jis"
	case "gb2312", "gbk", "gb18030":
		return lower
	case "euc-jp", "eucjp":
		return "euc-jp"
	case "koi8-r":
		return "koi8-r"
	default:
		return lower
	}
}

// Is8Bit reports whether b contains any byte with the high bit set.
func Is8Bit(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return true
		}
	}
	return false
}

// Encoding names the transfer encoding BestEncoding recommends.
type Encoding int

const (
	SevenBit Encoding = iota
	QuotedPrintable
	Base64
)

func (e Encoding) String() string {
	switch e {
	case QuotedPrintable:
		return "quoted-printable"
	case Base64:
		return "base64"
	default:
		return "7bit"
	}
}

// BestEncoding picks quoted-printable when no more than 17% of bytes are
// non-ASCII, and base64 otherwise, per spec §4.3. Content with no 8-bit
// bytes at all needs no transfer encoding.
func BestEncoding(b []byte) Encoding {
	if len(b) == 0 {
		return SevenBit
	}
	nonASCII := 0
	for _, c := range b {
		if c >= 0x80 {
			nonASCII++
		}
	}
	if nonASCII == 0 {
		return SevenBit
	}
	if float64(nonASCII)/float64(len(b)) <= 0.17 {
		return QuotedPrintable
	}
	return Base64
}

// LongestLine returns the length of the longest line in b (bytes between
// '\n's, not counting the trailing '\r'), used to check 7bit/8bit line
// length compliance (spec §4.3).
func LongestLine(b []byte) int {
	longest, cur := 0, 0
	for _, c := range b {
		if c == '\n' {
			if cur > longest {
				longest = cur
			}
			cur = 0
			continue
		}
		if c != '\r' {
			cur++
		}
	}
	if cur > longest {
		longest = cur
	}
	return longest
}
