// Package param parses and encodes the "; name=value" parameter lists
// that trail Content-Type and Content-Disposition headers, including
// RFC 2231 continuation and charset/language tagging. Grounded on the
// teacher's email/msgbuilder/tree.go (buildPartHeader's parameter
// quoting) and generalized into a standalone parser, since the teacher
// leans on stdlib mime.ParseMediaType for reading and never needs to
// write RFC 2231 continuations itself.
package param

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"mimetree.dev/email/charset"
	"mimetree.dev/email/codec"
	"mimetree.dev/email/token"
)

// Param is one decoded name/value pair from a parameter list.
type Param struct {
	Name  string
	Value string
}

// List is an ordered parameter list; duplicate names keep only their
// first occurrence, per spec §4.5.
type List struct {
	Params []Param
}

// Get returns the value of the first parameter named name (case
// insensitive) and whether it was present.
func (l *List) Get(name string) (string, bool) {
	for _, p := range l.Params {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Set adds or replaces the parameter named name.
func (l *List) Set(name, value string) {
	for i, p := range l.Params {
		if strings.EqualFold(p.Name, name) {
			l.Params[i].Value = value
			return
		}
	}
	l.Params = append(l.Params, Param{Name: name, Value: value})
}

// Warnf is the warning-callback shape threaded through Parse, mirroring
// spec §6's "(offset, code, context)" warning triple.
type Warnf func(offset int64, code, context string)

// Compliance selects how tolerant parameter-value parsing is of RFC
// 2047 encoded-words appearing where RFC 2231 grammar does not allow
// them (a defect some mailers produce), per spec §6's
// parameter_compliance.
type Compliance int

const (
	// Loose decodes an encoded-word found in a plain parameter value.
	Loose Compliance = iota
	// Strict leaves it untouched, since RFC 2231 syntax has no such
	// production.
	Strict
)

// Options bundles Parse's compliance/tolerance/warning knobs, mirroring
// spec §6's ParserOptions fields that apply to parameter lists.
// BaseOffset is the byte offset of the header value being parsed,
// prepended to every Warn call so callers don't have to.
type Options struct {
	BaseOffset int64
	Compliance Compliance
	RFC2047    codec.Compliance
	WarnFunc   Warnf
}

// Warn invokes WarnFunc with BaseOffset, if set.
func (o Options) Warn(code, context string) {
	if o.WarnFunc != nil {
		o.WarnFunc(o.BaseOffset, code, context)
	}
}

type rawChunk struct {
	index     int
	encoded   bool // percent-encoded (name*n*=) vs literal (name*n=)
	value     string
	charset   string // only set on chunk 0 of an extended parameter
	lang      string
	hasIndex  bool
}

// Parse reads a "; name=value; name2=value2" tail (every parameter,
// the first included, must be introduced by ';'; parsing stops at the
// first parameter that is not) into a List, assembling RFC 2231 continuations and decoding percent
// escapes/charsets/RFC 2047 per spec §4.5.
func Parse(s string, opts Options) *List {
	warn := opts.Warn
	groups := map[string][]rawChunk{}
	order := []string{}
	single := map[string]string{} // name*= single-value extended params

	c := &token.Cursor{S: s}
	for {
		c.SkipCFWS()
		if !c.Consume(';') {
			break
		}
		c.SkipCFWS()
		if c.Empty() {
			break
		}
		name, ext, idx, hasIdx, ok := parseParamName(c)
		if !ok {
			warn("invalid-parameter", "unparsable parameter name near "+previewString(c))
			skipToSemicolon(c)
			continue
		}
		c.SkipCFWS()
		if !c.Consume('=') {
			warn("invalid-parameter", "missing '=' after parameter name "+name)
			skipToSemicolon(c)
			continue
		}
		c.SkipCFWS()
		raw, ok := parseParamValue(c)
		if !ok {
			warn("invalid-parameter", "unparsable parameter value for "+name)
			skipToSemicolon(c)
			continue
		}

		key := strings.ToLower(name)
		if _, seen := groups[key]; !seen {
			if _, isSingle := single[key]; !isSingle {
				order = append(order, key)
			}
		}

		switch {
		case ext && !hasIdx:
			// name*=charset'lang'percent-encoded, no continuation.
			cs, _, val := splitExtendedValue(raw)
			decoded := decodePercent(val)
			single[key] = iconvOrKeep(decoded, cs, opts)
		case hasIdx:
			groups[key] = append(groups[key], rawChunk{
				index: idx, encoded: ext, value: raw, hasIndex: true,
			})
			if idx == 0 && ext {
				cs, lang, val := splitExtendedValue(raw)
				groups[key][len(groups[key])-1].value = val
				groups[key][len(groups[key])-1].charset = cs
				groups[key][len(groups[key])-1].lang = lang
			}
		default:
			// Plain name=value; RFC 2231 grammar has no encoded-word
			// production here, so decoding one is a Loose-mode defect
			// recovery (disabled under Strict).
			decoded := raw
			if opts.Compliance != Strict && strings.Contains(decoded, "=?") {
				decoded = codec.DecodeHeaderText(decoded, opts.RFC2047)
			}
			if !isValidUTF8(decoded) {
				decoded = iconvOrKeep(decoded, "", opts)
			}
			if existing, dup := single[key]; dup {
				if existing != decoded {
					warn("conflicting-duplicate-parameter", name)
				}
				continue
			}
			single[key] = decoded
		}
	}

	l := &List{}
	for _, key := range order {
		if v, ok := single[key]; ok {
			l.Set(key, v)
			continue
		}
		chunks := groups[key]
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].index < chunks[j].index })
		var raw strings.Builder
		cs := "us-ascii"
		wantIndex := 0
		for _, ch := range chunks {
			if ch.index != wantIndex {
				warn("invalid-parameter", fmt.Sprintf("gap in continuation for %s at index %d", key, ch.index))
			}
			if ch.charset != "" {
				cs = ch.charset
			}
			if ch.encoded {
				raw.WriteString(decodePercent(ch.value))
			} else {
				raw.WriteString(ch.value)
			}
			wantIndex = ch.index + 1
		}
		l.Set(key, iconvOrKeep(raw.String(), cs, opts))
	}
	return l
}

// parseParamName parses "token" or "token*" or "token*N" or "token*N*",
// returning the bare name, whether it was percent-encoded form (trailing
// '*' immediately after the name or after an index), the continuation
// index if any, and whether an index was present.
func parseParamName(c *token.Cursor) (name string, extended bool, index int, hasIndex bool, ok bool) {
	i := 0
	for i < c.Len() && isAttributeChar(c.S[i]) {
		i++
	}
	if i == 0 {
		return "", false, 0, false, false
	}
	name = c.S[:i]
	c.S = c.S[i:]
	if c.Consume('*') {
		// Either a bare "*" (extended, no continuation) or digits then
		// optionally another "*".
		digits := ""
		for !c.Empty() && c.Peek() >= '0' && c.Peek() <= '9' {
			digits += string(c.Peek())
			c.Consume(c.Peek())
		}
		if digits != "" {
			n, convErr := strconv.Atoi(digits)
			if convErr != nil {
				return "", false, 0, false, false
			}
			index = n
			hasIndex = true
		}
		if digits == "" || c.Consume('*') {
			extended = true
		}
	}
	return name, extended, index, hasIndex, true
}

// parseParamValue reads either a quoted-string or a bare token up to
// the next ';' (tolerating unquoted specials inside, common in the
// wild), without decoding.
func parseParamValue(c *token.Cursor) (string, bool) {
	if !c.Empty() && c.Peek() == '"' {
		v, err := c.SkipQuoted()
		return v, err == nil
	}
	i := 0
	rest := c.Rest()
	for i < len(rest) && rest[i] != ';' {
		i++
	}
	val := strings.TrimRight(rest[:i], " \t")
	for j := 0; j < i; j++ {
		c.Consume(rest[j])
	}
	return val, true
}

func splitExtendedValue(raw string) (cs, lang, val string) {
	parts := strings.SplitN(raw, "'", 3)
	if len(parts) != 3 {
		return "", "", raw
	}
	return parts[0], parts[1], parts[2]
}

func decodePercent(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := hexDigit(s[i+1])
			lo, ok2 := hexDigit(s[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}

// iconvOrKeep converts raw bytes from cs to UTF-8 via charset.Default,
// falling back to the raw string (best-effort, per spec §7) if the
// charset is unknown or conversion fails.
func iconvOrKeep(raw, cs string, opts Options) string {
	if cs == "" || strings.EqualFold(cs, "utf-8") || strings.EqualFold(cs, "us-ascii") {
		return raw
	}
	r, err := charset.Default.Reader(charset.Canonical(cs), bytes.NewReader([]byte(raw)))
	if err != nil {
		opts.Warn("invalid-parameter", "unknown charset "+cs)
		return raw
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return string(out)
}

func previewString(c *token.Cursor) string {
	rest := c.Rest()
	if len(rest) > 16 {
		rest = rest[:16]
	}
	return strconv.Quote(rest)
}

func skipToSemicolon(c *token.Cursor) {
	rest := c.Rest()
	i := strings.IndexByte(rest, ';')
	if i < 0 {
		for !c.Empty() {
			c.Consume(c.Peek())
		}
		return
	}
	for j := 0; j < i; j++ {
		c.Consume(rest[j])
	}
}
