package email

import (
	"io"

	"mimetree.dev/email/codec"
	"mimetree.dev/email/stream"
)

// DataWrapper pairs a Part's body bytes with the transfer encoding
// those bytes are stored in (spec §4.12). A part read by the MIME
// parser keeps its original substream untouched and IsEncoded=true
// (the bytes on Stream are still base64/quoted-printable/etc as found
// on the wire); SetContent instead stores plain decoded bytes in a
// memory-backed stream with IsEncoded=false, applying Encoding only
// when the part is serialized.
type DataWrapper struct {
	Stream    stream.Stream
	Encoding  codec.Algorithm
	IsEncoded bool
}

// NewEncodedDataWrapper wraps a stream already holding wire-encoded
// bytes, as produced by the MIME parser.
func NewEncodedDataWrapper(s stream.Stream, enc codec.Algorithm) *DataWrapper {
	return &DataWrapper{Stream: s, Encoding: enc, IsEncoded: true}
}

// NewDecodedDataWrapper wraps a stream holding plain decoded bytes, as
// set via Part.SetContent.
func NewDecodedDataWrapper(s stream.Stream, enc codec.Algorithm) *DataWrapper {
	return &DataWrapper{Stream: s, Encoding: enc, IsEncoded: false}
}

func readAllStream(s stream.Stream) ([]byte, error) {
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return io.ReadAll(s)
}

// Decoded returns the body's plain bytes, decoding through Encoding if
// the underlying stream is wire-encoded.
func (d *DataWrapper) Decoded() ([]byte, error) {
	raw, err := readAllStream(d.Stream)
	if err != nil {
		return nil, err
	}
	if !d.IsEncoded {
		return raw, nil
	}
	dec := codec.NewDecoder(d.Encoding)
	if dec == nil {
		return raw, nil
	}
	out := dec.Step(raw)
	out = append(out, dec.Flush()...)
	return out, nil
}

// WriteEncoded writes the body's wire-encoded form to w: a straight
// copy of Stream's bytes if already encoded, otherwise Stream's plain
// bytes run through Encoding's encoder.
func (d *DataWrapper) WriteEncoded(w io.Writer) (int64, error) {
	raw, err := readAllStream(d.Stream)
	if err != nil {
		return 0, err
	}
	if d.IsEncoded {
		n, err := w.Write(raw)
		return int64(n), err
	}
	enc := codec.NewEncoder(d.Encoding)
	if enc == nil {
		n, err := w.Write(raw)
		return int64(n), err
	}
	out := enc.Step(raw)
	out = append(out, enc.Flush()...)
	n, err := w.Write(out)
	return int64(n), err
}

// Len returns the byte length of the wrapped stream, or -1 if unknown.
func (d *DataWrapper) Len() int64 {
	return d.Stream.Length()
}
