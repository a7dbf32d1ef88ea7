// Package ctype parses and serializes Content-Type (RFC 2045) and
// Content-Disposition (RFC 2183) headers, delegating their trailing
// parameter lists to email/param. Grounded on the teacher's
// email/msgbuilder/tree.go (extractMediaType, buildPartHeader,
// quoteSpecial), generalized from stdlib mime.ParseMediaType (which the
// teacher used for reading) into a hand-rolled parser so parse warnings
// and RFC 2231 round-tripping are available, which stdlib mime doesn't
// expose.
package ctype

import (
	"strings"

	"mimetree.dev/email/param"
	"mimetree.dev/email/token"
)

// ContentType is a parsed "type/subtype; params..." value.
type ContentType struct {
	Type    string
	Subtype string
	Params  *param.List
}

// DefaultContentType is the fallback used when a Content-Type header is
// missing or unparsable, per spec §4.6.
func DefaultContentType() *ContentType {
	return &ContentType{Type: "application", Subtype: "octet-stream", Params: &param.List{}}
}

// ParseContentType parses s (the header value after "Content-Type:"),
// reporting defects via popts.WarnFunc and falling back to
// application/octet-stream on a missing slash or empty tokens. offset
// is s's byte position in the enclosing header, stamped onto every
// warning.
func ParseContentType(s string, offset int64, popts param.Options) *ContentType {
	popts.BaseOffset = offset
	c := &token.Cursor{S: s}
	c.SkipCFWS()
	typ, err := c.SkipAtom(false, false)
	if i := strings.IndexByte(typ, '/'); i >= 0 {
		// '/' is atext, so the atom may run on into the subtype.
		c.S = typ[i:] + c.S
		typ = typ[:i]
	}
	if err != nil || typ == "" {
		popts.Warn("invalid-content-type", "missing type in "+strings.TrimSpace(s))
		return parseParamsOnly(s, popts)
	}
	c.SkipCFWS()
	if !c.Consume('/') {
		popts.Warn("invalid-content-type", "missing '/' in "+strings.TrimSpace(s))
		return parseParamsOnly(s, popts)
	}
	c.SkipCFWS()
	sub, err := c.SkipAtom(false, false)
	if err != nil || sub == "" {
		popts.Warn("invalid-content-type", "missing subtype in "+strings.TrimSpace(s))
		return parseParamsOnly(s, popts)
	}
	return &ContentType{
		Type:    strings.ToLower(typ),
		Subtype: strings.ToLower(sub),
		Params:  param.Parse(c.Rest(), popts),
	}
}

func parseParamsOnly(s string, popts param.Options) *ContentType {
	ct := DefaultContentType()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		ct.Params = param.Parse(s[i:], popts)
	}
	return ct
}

// IsType reports whether ct matches type/subtype, honoring "*" as a
// wildcard on either side (ASCII case-insensitive), per spec §4.6.
func (ct *ContentType) IsType(typ, sub string) bool {
	if typ != "*" && !strings.EqualFold(ct.Type, typ) {
		return false
	}
	if sub != "*" && !strings.EqualFold(ct.Subtype, sub) {
		return false
	}
	return true
}

// Charset is shorthand for the "charset" parameter.
func (ct *ContentType) Charset() string {
	v, _ := ct.Params.Get("charset")
	return v
}

// Boundary is shorthand for the "boundary" parameter.
func (ct *ContentType) Boundary() string {
	v, _ := ct.Params.Get("boundary")
	return v
}

// Encode writes "type/subtype; params..." folded to maxLineLength.
func (ct *ContentType) Encode(method param.EncodingMethod, maxLineLength int) string {
	head := ct.Type + "/" + ct.Subtype
	if ct.Params == nil {
		return head
	}
	return head + ct.Params.Encode(method, maxLineLength)
}

// Disposition is a parsed Content-Disposition value (RFC 2183).
type Disposition struct {
	Value  string // "inline", "attachment", or a caller-defined token
	Params *param.List
}

// ParseDisposition parses s (the header value after
// "Content-Disposition:"). offset is s's byte position in the
// enclosing header, stamped onto every warning.
func ParseDisposition(s string, offset int64, popts param.Options) *Disposition {
	popts.BaseOffset = offset
	c := &token.Cursor{S: s}
	c.SkipCFWS()
	val, err := c.SkipAtom(false, false)
	if err != nil || val == "" {
		popts.Warn("invalid-disposition", "missing disposition value in "+strings.TrimSpace(s))
		val = "attachment"
	}
	return &Disposition{
		Value:  strings.ToLower(val),
		Params: param.Parse(c.Rest(), popts),
	}
}

// Encode writes "value; params..." folded to maxLineLength.
func (d *Disposition) Encode(method param.EncodingMethod, maxLineLength int) string {
	if d.Params == nil {
		return d.Value
	}
	return d.Value + d.Params.Encode(method, maxLineLength)
}

// IsAttachment reports whether d's value is "attachment".
func (d *Disposition) IsAttachment() bool { return d.Value == "attachment" }

// IsInline reports whether d's value is "inline".
func (d *Disposition) IsInline() bool { return d.Value == "inline" }
