package email

import (
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/events"
	"mimetree.dev/email/param"
)

func paramMethod(m events.ParamEncoding) param.EncodingMethod {
	if m == events.RFC2047 {
		return param.RFC2047
	}
	return param.RFC2231
}

// MimeObject is the base every Message/Part/Multipart embeds: a
// Header plus cached, header-synchronized Content-Type/Disposition/
// Content-ID properties (spec §4.11).
//
// Property↔header synchronization: setting a property writes the
// header with the change-event topic blocked (so the property's own
// listener does not immediately re-parse the value it just wrote);
// setting the header directly (e.g. during parsing) invalidates the
// cached property so the next read re-parses it. Removing Content-Type
// writes the application/octet-stream default back into the header — a
// MIME object always has a type — and removing Content-Disposition
// simply clears the cached disposition.
type MimeObject struct {
	Header *Header

	// Opts governs the compliance/tolerance/warning behavior of this
	// object's Content-Type/Content-Disposition parsing (spec §6). The
	// zero value is fully Loose/tolerant, matching prior behavior.
	Opts ParserOptions

	ct   *ctype.ContentType
	disp *ctype.Disposition
}

// NewMimeObject returns an object with a fresh Header wired to keep
// ct/disp in sync with header mutations.
func NewMimeObject() *MimeObject {
	o := &MimeObject{Header: &Header{}}
	o.Header.bus().Subscribe(topicHeaderListChanged, o.onHeaderChanged)
	return o
}

// WrapHeader adopts an existing Header (as produced by the MIME
// parser) instead of starting from an empty one.
func WrapHeader(h *Header) *MimeObject {
	o := &MimeObject{Header: h}
	o.Header.bus().Subscribe(topicHeaderListChanged, o.onHeaderChanged)
	return o
}

func (o *MimeObject) onHeaderChanged(action string, k Key) {
	switch k {
	case "Content-Type":
		o.ct = nil
		if action == "remove" {
			o.Header.bus().Block(topicHeaderListChanged)
			o.Header.Set("Content-Type", []byte(DefaultContentType().Encode(param.RFC2231, 0)))
			o.Header.bus().Unblock(topicHeaderListChanged)
		}
	case "Content-Disposition":
		o.disp = nil
	}
}

// DefaultContentType mirrors ctype.DefaultContentType, named at this
// layer so callers don't need to import email/ctype just to ask for
// the fallback (spec §4.6's application/octet-stream default).
func DefaultContentType() *ctype.ContentType {
	return ctype.DefaultContentType()
}

// ContentType returns the object's parsed Content-Type, parsing the
// header lazily and falling back to DefaultContentType on a missing or
// unparsable header (spec §4.6, §4.11).
func (o *MimeObject) ContentType() *ctype.ContentType {
	if o.ct != nil {
		return o.ct
	}
	entry := o.Header.GetEntry("Content-Type")
	if entry == nil {
		o.ct = DefaultContentType()
		return o.ct
	}
	o.ct = ctype.ParseContentType(unfold(entry.Value), entry.Offset, o.Opts.paramOptions(entry.Offset))
	return o.ct
}

// ContentTypeContextual is like ContentType, but falls back to def
// instead of application/octet-stream when the header is absent,
// without writing def into the header. The MIME parser uses this to
// apply context-sensitive defaults (spec §4.14): top-level and most
// parts default missing Content-Type to text/plain, but a child of
// multipart/digest defaults to message/rfc822.
func (o *MimeObject) ContentTypeContextual(def *ctype.ContentType) *ctype.ContentType {
	if o.ct != nil {
		return o.ct
	}
	entry := o.Header.GetEntry("Content-Type")
	if entry == nil {
		o.ct = def
		return o.ct
	}
	o.ct = ctype.ParseContentType(unfold(entry.Value), entry.Offset, o.Opts.paramOptions(entry.Offset))
	return o.ct
}

// SetContentType updates both the cached property and the Content-Type
// header, in that order, with header-change delivery blocked so the
// object's own listener does not re-parse the value it just wrote.
func (o *MimeObject) SetContentType(ct *ctype.ContentType, opts events.FormatOptions) {
	o.ct = ct
	o.Header.bus().Block(topicHeaderListChanged)
	o.Header.Set("Content-Type", []byte(ct.Encode(paramMethod(opts.ParamEncodingMethod), opts.MaxLineLength)))
	o.Header.bus().Unblock(topicHeaderListChanged)
}

// Disposition returns the object's Content-Disposition, or nil if
// absent; a value with no parsable disposition token is read as
// "attachment".
func (o *MimeObject) Disposition() *ctype.Disposition {
	if o.disp != nil {
		return o.disp
	}
	entry := o.Header.GetEntry("Content-Disposition")
	if entry == nil {
		return nil
	}
	o.disp = ctype.ParseDisposition(unfold(entry.Value), entry.Offset, o.Opts.paramOptions(entry.Offset))
	return o.disp
}

// SetDisposition updates the cached property and header together.
func (o *MimeObject) SetDisposition(d *ctype.Disposition, opts events.FormatOptions) {
	o.disp = d
	o.Header.bus().Block(topicHeaderListChanged)
	o.Header.Set("Content-Disposition", []byte(d.Encode(paramMethod(opts.ParamEncodingMethod), opts.MaxLineLength)))
	o.Header.bus().Unblock(topicHeaderListChanged)
}

// ContentID returns the bare "<id>" value of the Content-Id header, or
// "" if absent.
func (o *MimeObject) ContentID() string {
	v, _ := o.Header.Value("Content-ID")
	return v
}

// SetContentID sets the Content-Id header to id, which is expected to
// already be in "<local@domain>" form.
func (o *MimeObject) SetContentID(id string) {
	o.Header.bus().Block(topicHeaderListChanged)
	o.Header.Set("Content-ID", []byte(id))
	o.Header.bus().Unblock(topicHeaderListChanged)
}
