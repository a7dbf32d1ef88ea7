package msgbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mimetree.dev/email"
	"mimetree.dev/email/codec"
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/events"
	"mimetree.dev/email/param"
)

// PartSpec describes one leaf body/attachment/inline-related part
// before it is composed into the email.Object tree. This is the
// composition half of spec §4.12/§4.13: given a flat list of candidate
// body renditions and attachments, decide the multipart/alternative +
// multipart/related + multipart/mixed nesting a real mail client would
// produce.
type PartSpec struct {
	IsBody      bool   // one of several alternative top-level body renditions
	Name        string // attachment filename, if any
	ContentID   string // bare id (no angle brackets); marks an inline-related part
	ContentType string // "text/plain", "text/html", "image/png", ...
	Content     []byte
}

// ComposeBody builds the nested multipart tree the teacher's
// BuildTree/buildTreeBody/buildTreeRelated produced from a flat
// email.Msg's Parts, generalized to the email.Object model: several
// alternative body renditions (e.g. text/plain + text/html), inline-
// related parts (e.g. embedded images the HTML rendition references by
// Content-ID), plus ordinary attachments. The related parts are grouped
// with the sole body rendition, or else with the first text/html one;
// with several renditions and no text/html, they are not attached.
func ComposeBody(specs []PartSpec) (email.Object, error) {
	body, related, attachments := pullParts(specs)

	bodyObj, err := buildTreeBody(body, related)
	if err != nil {
		return nil, fmt.Errorf("msgbuilder.ComposeBody: %v", err)
	}
	if len(attachments) == 0 {
		return bodyObj, nil
	}

	mp := email.NewMultipart("mixed")
	mp.AddChild(bodyObj)
	for _, a := range attachments {
		p, err := buildPart(a)
		if err != nil {
			return nil, fmt.Errorf("msgbuilder.ComposeBody: %v", err)
		}
		mp.AddChild(p)
	}
	return mp, nil
}

func buildTreeBody(body, related []PartSpec) (email.Object, error) {
	if len(body) == 0 {
		return nil, errors.New("no body part")
	}
	if len(body) == 1 {
		return buildTreeRelated(body[0], related)
	}

	mp := email.NewMultipart("alternative")
	seenHTML := false
	for _, b := range body {
		var rel []PartSpec
		if b.ContentType == "text/html" && !seenHTML {
			seenHTML = true
			rel = related
		}
		obj, err := buildTreeRelated(b, rel)
		if err != nil {
			return nil, err
		}
		mp.AddChild(obj)
	}
	return mp, nil
}

func buildTreeRelated(body PartSpec, related []PartSpec) (email.Object, error) {
	p, err := buildPart(body)
	if err != nil {
		return nil, err
	}
	if len(related) == 0 {
		return p, nil
	}

	mp := email.NewMultipart("related")
	mp.AddChild(p)
	for _, r := range related {
		ro, err := buildTreeRelated(r, nil)
		if err != nil {
			return nil, err
		}
		mp.AddChild(ro)
	}
	return mp, nil
}

func pullParts(specs []PartSpec) (body, related, attachments []PartSpec) {
	for i, p := range specs {
		if p.IsBody {
			body = append(body, p)
			continue
		}
		if p.Name == "" {
			p.Name = "attachment-" + strconv.Itoa(i)
		}
		if p.ContentID == "" {
			attachments = append(attachments, p)
		} else {
			related = append(related, p)
		}
	}
	return body, related, attachments
}

func buildPart(spec PartSpec) (*email.Part, error) {
	if strings.Contains(spec.Name, `"`) {
		return nil, fmt.Errorf("attachment name %q includes quotes", spec.Name)
	}
	if strings.Contains(spec.ContentID, `"`) {
		return nil, fmt.Errorf("Content-ID %q includes quotes", spec.ContentID)
	}

	typ, sub := "text", "plain"
	if i := strings.IndexByte(spec.ContentType, '/'); i >= 0 {
		typ, sub = spec.ContentType[:i], spec.ContentType[i+1:]
	}
	ct := &ctype.ContentType{Type: typ, Subtype: sub, Params: &param.List{}}
	if sub == "plain" || sub == "html" {
		ct.Params.Set("charset", "UTF-8")
	}
	if spec.Name != "" {
		ct.Params.Set("name", spec.Name)
	}

	part := email.NewPart()
	part.SetContentType(ct, events.DefaultFormatOptions())

	disp := &ctype.Disposition{Params: &param.List{}}
	switch {
	case spec.ContentID != "":
		part.SetContentID("<" + spec.ContentID + ">")
		fileName := spec.Name
		if fileName == "" {
			fileName = spec.ContentID
		}
		disp.Value = "inline"
		disp.Params.Set("filename", fileName)
	case spec.Name != "":
		disp.Value = "attachment"
		disp.Params.Set("filename", spec.Name)
	default:
		disp.Value = "inline"
	}
	part.SetDisposition(disp, events.DefaultFormatOptions())

	part.SetContent(spec.Content, chooseEncoding(spec.ContentType, spec.Content))
	return part, nil
}

// chooseEncoding mirrors the teacher's buildPartHeader scan: 7bit when
// there are no 8-bit or NUL bytes and no line exceeds 120 bytes;
// otherwise quoted-printable for all-ASCII content (any type) and for
// text/plain or text/html, base64 for everything else.
func chooseEncoding(contentType string, content []byte) codec.Algorithm {
	isASCII := true
	is7Bit := true
	lineLen := 0
	for _, c := range content {
		if c == '\n' {
			lineLen = 0
			continue
		}
		lineLen++
		if lineLen > 120 {
			is7Bit = false
		}
		if c == 0 || c >= 0x80 {
			isASCII = false
			is7Bit = false
		}
	}
	isText := strings.HasPrefix(contentType, "text/plain") || strings.HasPrefix(contentType, "text/html")
	if isASCII || isText {
		if is7Bit {
			return codec.SevenBit
		}
		return codec.QuotedPrintable
	}
	return codec.Base64
}
