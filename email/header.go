package email

import (
	"bytes"
	"fmt"
	"io"

	"mimetree.dev/email/events"
)

// Key is a canonical MIME header entry key.
//
// Use CanonicalKey to canonise bytes as a Key.
type Key string

// HeaderEntry is one header line. RawName preserves the exact spelling
// seen on the wire (or set programmatically); Key is its canonical
// form used for lookup and dispatch. Charset and Offset are populated
// by the parser (spec §4.8's raw_name/raw_value/offset cache) and are
// zero-value for programmatically constructed entries.
type HeaderEntry struct {
	RawName string
	Key     Key
	Value   []byte
	Charset string
	Offset  int64

	decoded    string
	decodedSet bool
}

func (entry *HeaderEntry) name() string {
	if entry.RawName != "" {
		return entry.RawName
	}
	return string(entry.Key)
}

func (entry *HeaderEntry) Encode(w io.Writer) (n int, err error) {
	var wErr error
	defer func() {
		if err == nil {
			err = wErr
		}
	}()
	printf := func(format string, args ...interface{}) {
		var n2 int
		n2, err := fmt.Fprintf(w, format, args...)
		if wErr == nil {
			wErr = err
		}
		n += n2
	}

	name := entry.name()
	v := entry.Value
	if len(v) == 0 {
		printf("%s:\r\n", name)
		return 0, nil
	}
	printf("%s: ", name)

	// Header line limit:
	//
	// 	Each line of characters MUST be no more than 998 characters, and
	//	SHOULD be no more than 78 characters, excluding	the CRLF.
	//
	// https://tools.ietf.org/html/rfc5322#section-2.1.1
	//
	// We aim for conservative lines.
	// If we cannot manage that, we enforce the header limit.
	const padding = "    "
	spent := len(name) + len(": ")
	limit := 78

	firstPass := false
	for {
		if len(v) < limit-spent {
			printf("%s", v)
			break
		}
		var i int
		for i = limit - spent - 1; i > 0; i-- {
			if v[i] == ' ' {
				break
			}
		}
		if i == 0 {
			// There is nowhere to break this line.
			if limit == 78 {
				limit = 998
				continue
			}
			// RFC 5322 says we MUST not exceed this, so we do not.
			// Insert folding white space so we can break.
			i = 998 - spent
		}
		if firstPass {
			printf("%s", v[:i])
			firstPass = false
		} else {
			printf("%s\r\n%s", v[:i], padding)
		}
		spent = len(padding)
		limit = 78
		v = v[i:]
	}
	printf("\r\n")
	return n, nil
}

// Header is a MIME-style header: an ordered, case-insensitive-by-Key
// list of entries, with lazy RFC 2047 decode and a per-canonical-name
// formatter dispatch table (spec §4.8).
type Header struct {
	Entries []*HeaderEntry
	Index   map[Key][]*HeaderEntry
	Bus     *events.Bus
}

const topicHeaderListChanged = "header-list-changed"

func (h *Header) bus() *events.Bus {
	if h.Bus == nil {
		h.Bus = events.NewBus()
	}
	return h.Bus
}

func (h *Header) reindex() {
	h.Index = make(map[Key][]*HeaderEntry, len(h.Entries))
	for _, entry := range h.Entries {
		h.Index[entry.Key] = append(h.Index[entry.Key], entry)
	}
}

// Add appends a new entry under canonical key k, preserving v verbatim
// as its raw value. Use AddRaw to also preserve the original spelling
// of the header name, as the parser does.
func (h *Header) Add(k Key, v []byte) {
	h.AddRaw(string(k), k, v, 0)
}

// AddRaw appends a parser-sourced entry, keeping rawName exactly as
// seen on the wire.
func (h *Header) AddRaw(rawName string, k Key, v []byte, offset int64) *HeaderEntry {
	entry := &HeaderEntry{RawName: rawName, Key: k, Value: v, Offset: offset}
	h.Entries = append(h.Entries, entry)
	if h.Index == nil {
		h.Index = make(map[Key][]*HeaderEntry)
	}
	h.Index[k] = append(h.Index[k], entry)
	h.bus().Publish(topicHeaderListChanged, "add", k)
	return entry
}

// Get returns the first raw value stored under k, or nil.
func (h *Header) Get(k Key) []byte {
	if h.Index == nil {
		h.reindex()
	}
	entries := h.Index[k]
	if len(entries) == 0 {
		return nil
	}
	return entries[0].Value
}

// GetEntry returns the first HeaderEntry stored under k, or nil. Unlike
// Get, it exposes the entry's Offset, used to stamp parse warnings
// raised while decoding the header's structured content (Content-Type,
// address lists, parameters) with their position in the source.
func (h *Header) GetEntry(k Key) *HeaderEntry {
	if h.Index == nil {
		h.reindex()
	}
	entries := h.Index[k]
	if len(entries) == 0 {
		return nil
	}
	return entries[0]
}

// GetAll returns every raw value stored under k, in list order.
func (h *Header) GetAll(k Key) [][]byte {
	if h.Index == nil {
		h.reindex()
	}
	entries := h.Index[k]
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// Value returns the decoded (unfolded, RFC 2047-resolved) first value
// stored under k, using the formatter registered for k (spec §4.8).
func (h *Header) Value(k Key) (string, error) {
	if h.Index == nil {
		h.reindex()
	}
	entries := h.Index[k]
	if len(entries) == 0 {
		return "", nil
	}
	return h.decodeEntry(k, entries[0])
}

func (h *Header) decodeEntry(k Key, entry *HeaderEntry) (string, error) {
	if entry.decodedSet {
		return entry.decoded, nil
	}
	f := formatterFor(k)
	v, err := f.Decode(entry.Value, entry.Charset)
	if err != nil {
		return "", err
	}
	entry.decoded = v
	entry.decodedSet = true
	return v, nil
}

// SetValue encodes value via k's registered formatter and stores it as
// k's sole raw value (replacing any existing entries), publishing
// header-list-changed. The caller (typically a MimeObject's property
// setter) is expected to Block the topic first if it does not want its
// own change-listener to re-fire.
func (h *Header) SetValue(k Key, value string, opts events.FormatOptions) {
	f := formatterFor(k)
	raw := f.Encode(value, opts, "")
	h.Set(k, raw)
}

// Set replaces all entries for k with a single new entry carrying v.
func (h *Header) Set(k Key, v []byte) {
	h.Del(k)
	h.AddRaw(string(k), k, v, 0)
}

func (h *Header) Del(k Key) {
	var e []*HeaderEntry
	for _, entry := range h.Entries {
		if entry.Key != k {
			e = append(e, entry)
		}
	}
	changed := len(e) != len(h.Entries)
	h.Entries = e
	if h.Index != nil {
		delete(h.Index, k)
	}
	if changed {
		h.bus().Publish(topicHeaderListChanged, "remove", k)
	}
}

func (h *Header) Encode(w io.Writer) (n int, err error) {
	for _, entry := range h.Entries {
		n2, err := entry.Encode(w)
		n += n2
		if err != nil {
			return n, err
		}
	}
	n2, err := io.WriteString(w, "\r\n")
	n += n2
	return n, err
}

func (h Header) String() string {
	buf := new(bytes.Buffer)
	if _, err := h.Encode(buf); err != nil {
		return fmt.Sprintf("email.Header(encode error: %v)", err)
	}
	return buf.String()
}

// canonicalOverrides holds the header names the generic title-case-
// after-hyphen rule below gets wrong: acronyms and mixed-case tokens
// RFC 5322/2045 spell out verbatim ("CC", "MIME-Version", "Message-ID",
// "Content-ID"). Everything else this module reads or writes (Subject,
// Content-Type, Content-Disposition, Content-Transfer-Encoding, To,
// From, Reply-To, Sender, References, In-Reply-To, Resent-*, ...)
// already round-trips through the generic rule.
var canonicalOverrides = map[string]Key{
	"cc":           "CC",
	"mime-version": "MIME-Version",
	"message-id":   "Message-ID",
	"content-id":   "Content-ID",
}

// CanonicalKey builds a MIME header key out of bytes, comparing
// case-insensitively (spec §3, §4.8) and capitalizing the letter
// following each '-' for any name not in canonicalOverrides.
// It works on a lower-cased copy, so keyBytes is left unchanged.
func CanonicalKey(keyBytes []byte) Key {
	b := make([]byte, len(keyBytes))
	copy(b, keyBytes)
	asciiLower(b)

	if k, ok := canonicalOverrides[string(b)]; ok {
		return k
	}

	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			if i == 0 || b[i-1] == '-' {
				b[i] -= 'a' - 'A'
			}
		}
	}
	return Key(b)
}

func asciiLower(data []byte) {
	for i, b := range data {
		if b >= 'A' && b <= 'Z' {
			data[i] = b + ('a' - 'A')
		}
	}
}
