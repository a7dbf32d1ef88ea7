package email

import (
	"strings"

	"mimetree.dev/email/addr"
	"mimetree.dev/email/codec"
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/events"
	"mimetree.dev/email/param"
	"mimetree.dev/third_party/imf"
)

// Formatter is the decode/encode pair a Header entry's canonical Key
// dispatches to (spec §4.8's table).
type Formatter interface {
	Decode(raw []byte, charset string) (string, error)
	Encode(value string, opts events.FormatOptions, charset string) []byte
}

var formatterTable = map[Key]Formatter{
	"Received": receivedFormatter{},

	"Sender":                       addressListFormatter{},
	"From":                         addressListFormatter{},
	"Reply-To":                     addressListFormatter{},
	"To":                           addressListFormatter{},
	"CC":                           addressListFormatter{},
	"Bcc":                          addressListFormatter{},
	"Disposition-Notification-To": addressListFormatter{},
	"Resent-Sender": addressListFormatter{},
	"Resent-From":   addressListFormatter{},
	"Resent-To":     addressListFormatter{},
	"Resent-Cc":     addressListFormatter{},
	"Resent-Bcc":    addressListFormatter{},

	"Message-ID":        msgidFormatter{},
	"Content-ID":        msgidFormatter{},
	"Resent-Message-Id": msgidFormatter{},

	"In-Reply-To": msgidListFormatter{},
	"References":  msgidListFormatter{},

	"Content-Type":        contentTypeFormatter{},
	"Content-Disposition": dispositionFormatter{},
}

// formatterFor looks up k's formatter, defaulting to RFC 2047
// encode/decode + unstructured folding (spec §4.8's "default" row).
func formatterFor(k Key) Formatter {
	if f, ok := formatterTable[k]; ok {
		return f
	}
	return unstructuredFormatter{}
}

func unfold(raw []byte) string {
	s := string(raw)
	s = strings.ReplaceAll(s, "\r\n", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.TrimSpace(s)
}

func foldUnstructured(s string, opts events.FormatOptions) []byte {
	limit := opts.MaxLineLength
	if limit <= 0 {
		limit = 78
	}
	nl := opts.Newline.Bytes()
	words := strings.Fields(s)
	var out []byte
	col := 0
	for i, w := range words {
		if i > 0 {
			if col+1+len(w) > limit {
				out = append(out, nl...)
				out = append(out, ' ')
				col = 1
			} else {
				out = append(out, ' ')
				col++
			}
		}
		out = append(out, w...)
		col += len(w)
	}
	return out
}

type unstructuredFormatter struct{}

func (unstructuredFormatter) Decode(raw []byte, charset string) (string, error) {
	// Formatter.Decode has no per-entry ParserOptions to consult (Value
	// is called for any header, not just ones a caller configured), so
	// generic unstructured text always decodes RFC 2047 encoded-words
	// loosely; Strict rfc2047_compliance is honored instead where a
	// caller's ParserOptions are actually available: address display
	// names and parameter values.
	return codec.DecodeHeaderText(unfold(raw), codec.Loose), nil
}

func (unstructuredFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	if charset == "" {
		charset = "UTF-8"
	}
	if needsEncodedWord(value) {
		return []byte(codec.EncodeWord(value, charset))
	}
	return foldUnstructured(value, opts)
}

func needsEncodedWord(s string) bool {
	for _, r := range s {
		if r > 127 || r < 0x20 {
			return true
		}
	}
	return false
}

type receivedFormatter struct{}

func (receivedFormatter) Decode(raw []byte, charset string) (string, error) {
	return unfold(raw), nil
}

func (receivedFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	return foldUnstructured(value, opts)
}

type addressListFormatter struct{}

func (addressListFormatter) Decode(raw []byte, charset string) (string, error) {
	list := imf.ParseAddressList(string(raw), imf.AddressOptions{})
	return list.String(), nil
}

func (addressListFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	return foldUnstructured(value, opts)
}

// DecodeAddressList parses k's first raw value into an addr.AddressList
// directly, bypassing the string round-trip Value() does; this is what
// Message's To/Cc/From accessors use (spec §4.12), honoring opts'
// address_compliance/allow_addresses_without_domain/rfc2047_compliance
// and stamping warnings with k's entry offset.
func (h *Header) DecodeAddressList(k Key, opts ParserOptions) *addr.AddressList {
	entry := h.GetEntry(k)
	if entry == nil {
		return &addr.AddressList{}
	}
	return imf.ParseAddressList(string(entry.Value), opts.addressOptions(entry.Offset))
}

// SetAddressList encodes list and stores it under k, blocking the
// header-list-changed topic around the write per spec §4.11's
// re-entrancy rule.
func (h *Header) SetAddressList(k Key, list *addr.AddressList, opts events.FormatOptions) {
	h.bus().Block(topicHeaderListChanged)
	defer h.bus().Unblock(topicHeaderListChanged)
	h.Set(k, foldUnstructured(list.String(), opts))
}

type msgidFormatter struct{}

func (msgidFormatter) Decode(raw []byte, charset string) (string, error) {
	id, ok := imf.ParseMsgID(unfold(raw))
	if !ok {
		return unfold(raw), nil
	}
	return id, nil
}

func (msgidFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	return []byte(value)
}

type msgidListFormatter struct{}

func (msgidListFormatter) Decode(raw []byte, charset string) (string, error) {
	ids := imf.ParseReferences(string(raw))
	return strings.Join(ids, " "), nil
}

func (msgidListFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	ids := strings.Fields(value)
	limit := opts.MaxLineLength
	if limit <= 0 {
		limit = 78
	}
	return []byte(imf.FormatReferences(ids, limit))
}

type contentTypeFormatter struct{}

func (contentTypeFormatter) Decode(raw []byte, charset string) (string, error) {
	ct := ctype.ParseContentType(unfold(raw), 0, param.Options{})
	return ct.Type + "/" + ct.Subtype, nil
}

func (contentTypeFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	return []byte(value)
}

type dispositionFormatter struct{}

func (dispositionFormatter) Decode(raw []byte, charset string) (string, error) {
	d := ctype.ParseDisposition(unfold(raw), 0, param.Options{})
	return d.Value, nil
}

func (dispositionFormatter) Encode(value string, opts events.FormatOptions, charset string) []byte {
	return []byte(value)
}
