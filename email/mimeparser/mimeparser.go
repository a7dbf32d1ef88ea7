// Package mimeparser turns a raw RFC 5322/MIME byte stream into an
// email.Message tree: a single header-block reader plus a boundary-stack
// descent into multipart bodies (spec §4.14). Parts keep their body
// bytes as bounded substreams over the original input instead of
// decoding eagerly, so a caller that only wants the structure (sizes,
// content types, a child count) never pays for a base64/QP decode pass.
package mimeparser

import (
	"bufio"
	"bytes"

	"mimetree.dev/email"
	"mimetree.dev/email/codec"
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/param"
	"mimetree.dev/email/stream"
	"mimetree.dev/third_party/imf"
)

// Options governs parsing behavior. The zero value is usable: it walks
// the full depth of a message and discards warnings silently, and
// parses addresses/parameters fully Loose (spec §6's defaults).
type Options struct {
	// Warn is called for every recoverable defect (unterminated
	// multipart, malformed header line, a boundary param missing from
	// a Content-Type claiming multipart/*), with the byte offset the
	// defect was found at. Parsing continues past any single defect;
	// nil means warnings are dropped.
	Warn func(offset int64, code, context string)

	// MaxDepth bounds multipart/message nesting to guard against a
	// maliciously or accidentally self-referential boundary chain.
	// Zero means the default of 100.
	MaxDepth int

	// AddressCompliance, ParameterCompliance, RFC2047Compliance, and
	// AllowAddressesWithoutDomain mirror spec §6's ParserOptions triad
	// of compliance knobs, threaded down into every Message and
	// MimeObject the parse produces so their address/Content-Type/
	// Content-Disposition accessors honor the caller's strictness
	// instead of a hardcoded default.
	AddressCompliance           imf.Compliance
	ParameterCompliance         param.Compliance
	RFC2047Compliance           codec.Compliance
	AllowAddressesWithoutDomain bool
}

func (o Options) warn(offset int64, code, context string) {
	if o.Warn != nil {
		o.Warn(offset, code, context)
	}
}

// parserOptions translates o's compliance/warning fields into the
// email.ParserOptions shape stored on every Message/MimeObject this
// parse produces.
func (o Options) parserOptions() email.ParserOptions {
	return email.ParserOptions{
		AddressCompliance:           o.AddressCompliance,
		ParameterCompliance:         o.ParameterCompliance,
		RFC2047Compliance:           o.RFC2047Compliance,
		AllowAddressesWithoutDomain: o.AllowAddressesWithoutDomain,
		Warn:                        o.Warn,
	}
}

const defaultMaxDepth = 100

var textPlain = &ctype.ContentType{Type: "text", Subtype: "plain", Params: &param.List{}}
var messageRFC822 = &ctype.ContentType{Type: "message", Subtype: "rfc822", Params: &param.List{}}

// Parse parses data as a single top-level RFC 5322 message.
func Parse(data []byte) (*email.Message, error) {
	return ParseOptions(data, Options{})
}

// ParseOptions is Parse with explicit Options.
func ParseOptions(data []byte, opts Options) (*email.Message, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	root := stream.NewMemStreamBytes(data)
	return buildNestedMessage(root, data, 0, int64(len(data)), opts, 0)
}

// buildNestedMessage reads a full RFC 5322 header+body starting at
// start (bounded by end) and returns it as a *email.Message: used both
// for the top-level parse and for the message/rfc822 recursive-parse
// branch of buildObject (spec §4.14 step 4).
func buildNestedMessage(root *stream.MemStream, data []byte, start, end int64, opts Options, depth int) (*email.Message, error) {
	hdr, bodyStart, err := readHeaderBlock(data, start)
	if err != nil {
		return nil, err
	}

	msg := email.WrapMessageHeader(hdr)
	msg.Opts = opts.parserOptions()
	msg.MimeObject.Opts = msg.Opts
	ct := msg.MimeObject.ContentTypeContextual(textPlain)

	obj, err := buildObject(root, data, bodyStart, end, msg.MimeObject, ct, opts, depth)
	if err != nil {
		return nil, err
	}
	msg.Body = obj
	return msg, nil
}

// readHeaderBlock locates the blank line terminating the header block
// starting at offset, reads it via third_party/imf's continuation-line
// folder, and returns an email.Header plus the byte offset the body
// begins at. The header/body split is found by direct byte scan instead
// of trusting imf.Reader.NumRead (which is documented to assume LF-only
// newlines), so CRLF input is handled exactly.
func readHeaderBlock(data []byte, offset int64) (*email.Header, int64, error) {
	bodyStart := splitHeaderBody(data, offset)

	br := bufio.NewReader(bytes.NewReader(data[offset:bodyStart]))
	r := imf.NewReader(br)
	fields, err := r.ReadMIMEHeader()
	if err != nil {
		return nil, 0, err
	}

	hdr := &email.Header{}
	for _, f := range fields {
		key := email.CanonicalKey([]byte(f.RawName))
		hdr.AddRaw(f.RawName, key, f.Value, offset+f.Offset)
	}
	return hdr, bodyStart, nil
}

// splitHeaderBody returns the offset right after the first blank line
// (CRLF CRLF or LF LF) at or after start, right after a blank line at
// start itself (an empty header block), or the end of data if none is
// found (a headers-only, bodyless message).
func splitHeaderBody(data []byte, start int64) int64 {
	rest := data[start:]
	if bytes.HasPrefix(rest, []byte("\r\n")) {
		return start + 2
	}
	if bytes.HasPrefix(rest, []byte("\n")) {
		return start + 1
	}
	bestIdx, bestLen := -1, 0
	if i := bytes.Index(rest, []byte("\r\n\r\n")); i >= 0 {
		bestIdx, bestLen = i, 4
	}
	if i := bytes.Index(rest, []byte("\n\n")); i >= 0 && (bestIdx < 0 || i < bestIdx) {
		bestIdx, bestLen = i, 2
	}
	if bestIdx < 0 {
		return start + int64(len(rest))
	}
	return start + int64(bestIdx) + int64(bestLen)
}

// buildObject constructs the Object living in data[start:end], whose
// header is already parsed into o.Header. ct is o's already-resolved
// Content-Type, with the caller's contextual default already applied if
// the header omits Content-Type. Dispatch goes through
// email.DefaultRegistry (spec §4.11's precedence chain), then branches
// three ways per spec §4.14 step 4: multipart recurses into children,
// message/rfc822 recurses into a nested Message, and anything else is
// filled in as an opaque leaf.
func buildObject(root *stream.MemStream, data []byte, start, end int64, o *email.MimeObject, ct *ctype.ContentType, opts Options, depth int) (email.Object, error) {
	o.Opts = opts.parserOptions()
	obj := email.DefaultRegistry.Construct(ct.Type, ct.Subtype, o)

	switch v := obj.(type) {
	case *email.Multipart:
		boundary := ct.Boundary()
		if boundary == "" {
			opts.warn(start, "missing-boundary", ct.Type+"/"+ct.Subtype)
			return buildOpaquePart(root, o, start, end)
		}
		if depth >= opts.MaxDepth {
			opts.warn(start, "max-depth-exceeded", ct.Type+"/"+ct.Subtype)
			return buildOpaquePart(root, o, start, end)
		}
		v.Boundary = boundary
		if err := parseMultipart(root, data, start, end, boundary, v, opts, depth); err != nil {
			return nil, err
		}
		return v, nil

	case *email.MessagePart:
		if depth >= opts.MaxDepth {
			opts.warn(start, "max-depth-exceeded", ct.Type+"/"+ct.Subtype)
			return buildOpaquePart(root, o, start, end)
		}
		nested, err := buildNestedMessage(root, data, start, end, opts, depth+1)
		if err != nil {
			return nil, err
		}
		v.Nested = nested
		return v, nil

	case *email.Part:
		return fillPart(root, v, start, end)

	default:
		// A custom-registered constructor returned something other
		// than the types above; treat its body as opaque bytes.
		return buildOpaquePart(root, o, start, end)
	}
}

// fillPart points part's Body at data[start:end] as a bounded substream
// kept in its encoded form, recording the part's own
// Content-Transfer-Encoding for decoding on read.
func fillPart(root *stream.MemStream, part *email.Part, start, end int64) (email.Object, error) {
	sub, err := root.Substream(start, end)
	if err != nil {
		return nil, err
	}
	enc := codec.ParseAlgorithm(string(part.Header.Get("Content-Transfer-Encoding")))
	part.Body = email.NewEncodedDataWrapper(sub, enc)
	return part, nil
}

func buildOpaquePart(root *stream.MemStream, o *email.MimeObject, start, end int64) (email.Object, error) {
	return fillPart(root, &email.Part{MimeObject: o}, start, end)
}

// parseMultipart splits [start:end) on "--boundary" delimiter lines,
// recursively parsing each child part and recording preamble/epilogue
// bytes verbatim (spec §4.13's read-side mirror).
func parseMultipart(root *stream.MemStream, data []byte, start, end int64, boundary string, mp *email.Multipart, opts Options, depth int) error {
	pos := start

	ls, le, _, found := findBoundaryLine(data, pos, end, boundary)
	if !found {
		opts.warn(pos, "unterminated-multipart", boundary)
		mp.Preamble = cloneRange(data, pos, end)
		return nil
	}
	mp.Preamble = cloneRange(data, pos, trimEOL(data, pos, ls))
	pos = int64(le)
	isFinal := false

	for !isFinal && pos < end {
		ls2, le2, final2, found2 := findBoundaryLine(data, pos, end, boundary)
		childEnd := end
		next := end
		if found2 {
			childEnd = trimEOL(data, pos, ls2)
			next = int64(le2)
		} else {
			opts.warn(pos, "unterminated-multipart", boundary)
		}

		childDefault := childDefaultType(mp)
		childHdr, childBodyStart, err := readHeaderBlock(data, pos)
		if err != nil {
			return err
		}
		childObj := email.WrapHeader(childHdr)
		childObj.Opts = opts.parserOptions()
		childCT := childObj.ContentTypeContextual(childDefault)
		child, err := buildObject(root, data, childBodyStart, childEnd, childObj, childCT, opts, depth+1)
		if err != nil {
			return err
		}
		mp.AddChild(child)

		if !found2 {
			return nil
		}
		pos = next
		isFinal = final2
	}

	if pos < end {
		mp.Epilogue = cloneRange(data, pos, end)
	} else {
		mp.Epilogue = nil
	}
	return nil
}

// childDefaultType returns the Content-Type a child of mp defaults to
// when its own header omits one: message/rfc822 inside multipart/digest,
// text/plain everywhere else (spec §9's "Defaults when absent/invalid").
func childDefaultType(mp *email.Multipart) *ctype.ContentType {
	if mp.ContentType().Subtype == "digest" {
		return messageRFC822
	}
	return textPlain
}

func cloneRange(data []byte, start, end int64) []byte {
	if start >= end {
		return nil
	}
	out := make([]byte, end-start)
	copy(out, data[start:end])
	return out
}

// trimEOL returns contentEnd such that data[start:contentEnd] excludes
// the single CRLF or LF immediately preceding lineStart (the delimiter
// line's leading newline belongs to the boundary syntax, not the
// preceding part's content), never trimming past start.
func trimEOL(data []byte, start, lineStart int64) int64 {
	end := lineStart
	if end > start && data[end-1] == '\n' {
		end--
		if end > start && data[end-1] == '\r' {
			end--
		}
	}
	return end
}

// findBoundaryLine scans data[from:to) for the next "--boundary" (or
// "--boundary--") line that begins at the start of a line (position 0 of
// the whole buffer, or right after a '\n') and has nothing but optional
// whitespace after the delimiter. It returns the line's start
// and end offsets (end includes the line's own trailing newline, if
// any), whether it was the final "--boundary--" delimiter, and whether
// one was found at all.
func findBoundaryLine(data []byte, from, to int64, boundary string) (lineStart, lineEnd int64, isFinal, found bool) {
	marker := []byte("--" + boundary)
	pos := from
	for pos <= to-int64(len(marker)) {
		idx := bytes.Index(data[pos:to], marker)
		if idx < 0 {
			return 0, 0, false, false
		}
		abs := pos + int64(idx)
		if abs != 0 && data[abs-1] != '\n' {
			pos = abs + 1
			continue
		}
		after := abs + int64(len(marker))
		final := false
		if after+1 < to && data[after] == '-' && data[after+1] == '-' {
			final = true
			after += 2
		}
		nl := bytes.IndexByte(data[after:to], '\n')
		var end int64
		if nl < 0 {
			end = to
		} else {
			end = after + int64(nl) + 1
		}
		if len(bytes.Trim(data[after:end], " \t\r\n")) != 0 {
			// The marker is only a prefix of a longer token on this line.
			pos = abs + 1
			continue
		}
		return abs, end, final, true
	}
	return 0, 0, false, false
}
