// Package email is a light-weight set of types fundamental to processing
// email: headers, MIME parts, multipart containers, and the envelope
// message that ties them together (spec §4.8, §4.11-§4.13).
package email

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"io"
	"time"

	"mimetree.dev/email/addr"
	"mimetree.dev/email/codec"
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/events"
	"mimetree.dev/email/param"
	"mimetree.dev/email/stream"
	"mimetree.dev/third_party/imf"
)

// Object is anything constructible by the type/subtype registry and
// writable to a stream: a leaf Part, a Multipart, or a MessagePart, all
// of which embed a *MimeObject (spec §4.11).
type Object interface {
	Base() *MimeObject
	WriteTo(w io.Writer, opts events.FormatOptions) (int64, error)
}

// Part is a leaf MIME body: headers plus a DataWrapper (spec §4.12). A
// Part produced by the parser keeps Body's stream pointed at the
// original source substream; SetContent switches it to a memory-backed
// buffer instead.
type Part struct {
	*MimeObject
	Body *DataWrapper
}

// NewPart returns an empty part with no Content-Type header (so
// ContentType reports application/octet-stream) and no body set.
func NewPart() *Part {
	return &Part{MimeObject: NewMimeObject()}
}

func (p *Part) Base() *MimeObject { return p.MimeObject }

// SetContent replaces Body with a memory-backed decoded buffer, to be
// encoded as enc when the part is serialized, and records enc on the
// Content-Transfer-Encoding header.
func (p *Part) SetContent(content []byte, enc codec.Algorithm) {
	p.Body = NewDecodedDataWrapper(stream.NewMemStreamBytes(content), enc)
	p.Header.bus().Block(topicHeaderListChanged)
	p.Header.Set("Content-Transfer-Encoding", []byte(enc.String()))
	p.Header.bus().Unblock(topicHeaderListChanged)
}

func endsInNewline(b []byte, nl []byte) bool {
	if len(b) < len(nl) {
		return false
	}
	for i, c := range nl {
		if b[len(b)-len(nl)+i] != c {
			return false
		}
	}
	return true
}

// writeBody writes the part's encoded body, without headers or the
// blank line separating them (used by Message to avoid re-emitting the
// header it already wrote for a shared top-level MimeObject), ensuring
// a trailing newline when opts.EnsureNewline asks for one.
func (p *Part) writeBody(w io.Writer, opts events.FormatOptions) (int64, error) {
	if p.Body == nil {
		return 0, nil
	}
	var buf bytes.Buffer
	if _, err := p.Body.WriteEncoded(&buf); err != nil {
		return 0, err
	}
	out := buf.Bytes()
	if opts.EnsureNewline && len(out) > 0 {
		nl := opts.Newline.Bytes()
		if !endsInNewline(out, nl) {
			out = append(out, nl...)
		}
	}
	n, err := w.Write(out)
	return int64(n), err
}

// WriteTo writes the part's header (if requested), a blank line, then
// its encoded body (spec §4.12's write_to_stream).
func (p *Part) WriteTo(w io.Writer, opts events.FormatOptions) (int64, error) {
	var n int64
	if opts.IncludeHeaders {
		hn, err := p.Header.Encode(w)
		n += int64(hn)
		if err != nil {
			return n, err
		}
	}
	bn, err := p.writeBody(w, opts)
	n += bn
	return n, err
}

// Multipart is a container part: a boundary, an ordered list of
// children, and the verbatim preamble/epilogue text surrounding them
// (spec §4.13).
type Multipart struct {
	*MimeObject
	Boundary string
	Children []Object
	Preamble []byte
	Epilogue []byte
}

// NewMultipart returns an empty multipart container of the given
// subtype (e.g. "mixed", "alternative").
func NewMultipart(subtype string) *Multipart {
	o := NewMimeObject()
	ct := &ctype.ContentType{Type: "multipart", Subtype: subtype, Params: &param.List{}}
	o.SetContentType(ct, events.DefaultFormatOptions())
	return &Multipart{MimeObject: o}
}

func (m *Multipart) Base() *MimeObject { return m.MimeObject }

// AddChild appends o to the end of the children list.
func (m *Multipart) AddChild(o Object) {
	m.Children = append(m.Children, o)
}

func generateBoundary() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read on a real OS does not fail; if it somehow
		// does, fall back to a fixed, still-unlikely-to-collide token
		// rather than panicking mid-serialization.
		return "=_boundary_fallback"
	}
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// ensureBoundary returns m.Boundary, generating and persisting one (to
// both the struct field and the Content-Type header) if absent.
func (m *Multipart) ensureBoundary(opts events.FormatOptions) string {
	if m.Boundary != "" {
		return m.Boundary
	}
	ct := m.ContentType()
	if b := ct.Boundary(); b != "" {
		m.Boundary = b
		return m.Boundary
	}
	m.Boundary = generateBoundary()
	ct.Params.Set("boundary", m.Boundary)
	m.SetContentType(ct, opts)
	return m.Boundary
}

// writeBody writes the preamble, each "--boundary" delimited child, the
// closing "--boundary--" line, and the epilogue, without writing its
// own header (see Part.writeBody's doc for why).
func (m *Multipart) writeBody(w io.Writer, opts events.FormatOptions) (int64, error) {
	boundary := m.ensureBoundary(opts)
	nl := opts.Newline.Bytes()
	var n int64

	if len(m.Preamble) > 0 {
		pn, err := w.Write(m.Preamble)
		n += int64(pn)
		if err != nil {
			return n, err
		}
	}

	childOpts := opts
	childOpts.IncludeHeaders = true
	for _, child := range m.Children {
		for _, piece := range [][]byte{nl, []byte("--" + boundary), nl} {
			pn, err := w.Write(piece)
			n += int64(pn)
			if err != nil {
				return n, err
			}
		}
		cn, err := child.WriteTo(w, childOpts)
		n += cn
		if err != nil {
			return n, err
		}
	}

	for _, piece := range [][]byte{nl, []byte("--" + boundary + "--"), nl} {
		pn, err := w.Write(piece)
		n += int64(pn)
		if err != nil {
			return n, err
		}
	}
	if len(m.Epilogue) > 0 {
		en, err := w.Write(m.Epilogue)
		n += int64(en)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteTo writes the multipart's own header (if requested), a blank
// line, then its body per spec §4.13's five-step write algorithm.
func (m *Multipart) WriteTo(w io.Writer, opts events.FormatOptions) (int64, error) {
	var n int64
	if opts.IncludeHeaders {
		hn, err := m.Header.Encode(w)
		n += int64(hn)
		if err != nil {
			return n, err
		}
	}
	bn, err := m.writeBody(w, opts)
	n += bn
	return n, err
}

// MessagePart is a leaf MIME body whose content is itself a full RFC
// 5322 message: the message/rfc822 branch of spec §4.14 step 4, built
// by recursively parsing the part's body rather than treating it as
// opaque bytes. Nested owns its own header block, separate from the
// MessagePart's own headers (spec §3).
type MessagePart struct {
	*MimeObject
	Nested *Message
}

func (p *MessagePart) Base() *MimeObject { return p.MimeObject }

// WriteTo writes the MessagePart's own header (if requested), a blank
// line, then Nested's full header+body, mirroring Part.WriteTo's shape.
func (p *MessagePart) WriteTo(w io.Writer, opts events.FormatOptions) (int64, error) {
	var n int64
	if opts.IncludeHeaders {
		hn, err := p.Header.Encode(w)
		n += int64(hn)
		if err != nil {
			return n, err
		}
	}
	if p.Nested == nil {
		return n, nil
	}
	nestedOpts := opts
	nestedOpts.IncludeHeaders = true
	nn, err := p.Nested.WriteTo(w, nestedOpts)
	n += nn
	return n, err
}

// Message is the top-level envelope: From/To/Cc/Bcc/Subject/Date/
// Message-ID/References plus a root body object. The envelope's own
// Header is shared with Body's MimeObject when Body sits directly at
// the top level (no separate header block for the root, matching how a
// real message's Content-Type lives in the same header list as its
// From/To/Subject), so WriteTo only ever emits one header block for the
// root (spec §4.12).
type Message struct {
	*MimeObject
	Body Object

	// Opts governs the compliance/tolerance/warning behavior of this
	// message's address-list accessors (spec §6). The zero value is
	// fully Loose/tolerant, matching prior behavior.
	Opts ParserOptions
}

// NewMessage returns a message with MIME-Version set and an empty root
// part sharing the message's own header; no Content-Type is set, so the
// root reports application/octet-stream until one is.
func NewMessage() *Message {
	o := NewMimeObject()
	o.Header.Set("MIME-Version", []byte("1.0"))
	msg := &Message{MimeObject: o}
	msg.Body = &Part{MimeObject: o}
	return msg
}

// WrapMessageHeader builds a Message around a header the parser already
// produced, with root assigned by the caller once its type/subtype is
// known (typically via DefaultRegistry.Construct passing msg.MimeObject
// so the root shares the envelope's header).
func WrapMessageHeader(h *Header) *Message {
	o := WrapHeader(h)
	return &Message{MimeObject: o}
}

func (m *Message) Subject() string {
	v, _ := m.Header.Value("Subject")
	return v
}

func (m *Message) SetSubject(s string, opts events.FormatOptions) {
	m.Header.bus().Block(topicHeaderListChanged)
	m.Header.Set("Subject", unstructuredFormatter{}.Encode(s, opts, "UTF-8"))
	m.Header.bus().Unblock(topicHeaderListChanged)
}

func (m *Message) From() *addr.AddressList { return m.Header.DecodeAddressList("From", m.Opts) }
func (m *Message) To() *addr.AddressList   { return m.Header.DecodeAddressList("To", m.Opts) }
func (m *Message) Cc() *addr.AddressList   { return m.Header.DecodeAddressList("CC", m.Opts) }
func (m *Message) Bcc() *addr.AddressList  { return m.Header.DecodeAddressList("Bcc", m.Opts) }
func (m *Message) ReplyTo() *addr.AddressList {
	return m.Header.DecodeAddressList("Reply-To", m.Opts)
}
func (m *Message) Sender() *addr.AddressList {
	return m.Header.DecodeAddressList("Sender", m.Opts)
}

func (m *Message) SetFrom(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("From", list, opts)
}
func (m *Message) SetTo(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("To", list, opts)
}
func (m *Message) SetCc(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("CC", list, opts)
}
func (m *Message) SetBcc(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("Bcc", list, opts)
}
func (m *Message) SetReplyTo(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("Reply-To", list, opts)
}
func (m *Message) SetSender(list *addr.AddressList, opts events.FormatOptions) {
	m.Header.SetAddressList("Sender", list, opts)
}

// Date returns the message's parsed Date header and whether parsing
// succeeded at all (spec §4.10); a missing header reports false.
func (m *Message) Date() (time.Time, bool) {
	raw := m.Header.Get("Date")
	if raw == nil {
		return time.Time{}, false
	}
	return imf.ParseDate(unfold(raw))
}

func (m *Message) SetDate(t time.Time) {
	m.Header.bus().Block(topicHeaderListChanged)
	m.Header.Set("Date", []byte(imf.FormatDate(t)))
	m.Header.bus().Unblock(topicHeaderListChanged)
}

func (m *Message) MessageID() string {
	v, _ := m.Header.Value("Message-ID")
	return v
}

func (m *Message) SetMessageID(id string) {
	m.Header.bus().Block(topicHeaderListChanged)
	m.Header.Set("Message-ID", []byte(id))
	m.Header.bus().Unblock(topicHeaderListChanged)
}

// References returns the parsed References header as a list of
// "<id>" message IDs (angle brackets kept), oldest first (spec §4.9).
func (m *Message) References() []string {
	raw := m.Header.Get("References")
	if raw == nil {
		return nil
	}
	return imf.ParseReferences(unfold(raw))
}

func (m *Message) SetReferences(ids []string, opts events.FormatOptions) {
	limit := opts.MaxLineLength
	if limit <= 0 {
		limit = 78
	}
	m.Header.bus().Block(topicHeaderListChanged)
	m.Header.Set("References", []byte(imf.FormatReferences(ids, limit)))
	m.Header.bus().Unblock(topicHeaderListChanged)
}

// WriteTo writes the message's single shared header block, a blank
// line, then Body's content (spec §4.12).
func (m *Message) WriteTo(w io.Writer, opts events.FormatOptions) (int64, error) {
	var n int64
	if opts.IncludeHeaders {
		hn, err := m.Header.Encode(w)
		n += int64(hn)
		if err != nil {
			return n, err
		}
	}
	if m.Body == nil {
		return n, nil
	}
	switch body := m.Body.(type) {
	case *Part:
		bn, err := body.writeBody(w, opts)
		n += bn
		return n, err
	case *Multipart:
		bn, err := body.writeBody(w, opts)
		n += bn
		return n, err
	default:
		bodyOpts := opts
		bodyOpts.IncludeHeaders = false
		bn, err := m.Body.WriteTo(w, bodyOpts)
		n += bn
		return n, err
	}
}
