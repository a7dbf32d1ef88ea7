package charset

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// IconvBackend is the charset-conversion collaborator named in spec §6:
// open a conversion handle for a (from, to) charset pair, convert chunks
// through it, and close it. The core never opens a handle eagerly; every
// caller here scopes the handle's lifetime to a single decode call.
type IconvBackend interface {
	// Reader wraps r, decoding bytes in the named charset to UTF-8. It
	// returns an error if the charset is unrecognized.
	Reader(charsetName string, r io.Reader) (io.Reader, error)
}

// Default is the package-wide IconvBackend used when callers don't
// inject one of their own, mirroring spec §9's "expose a default global
// for convenience but let tests construct isolated instances."
var Default IconvBackend = textBackend{}

// textBackend implements IconvBackend with golang.org/x/text, the same
// library the teacher's third_party/imf/addr.go uses for its
// mime.WordDecoder.CharsetReader.
type textBackend struct{}

func (textBackend) Reader(charsetName string, r io.Reader) (io.Reader, error) {
	enc, err := lookupEncoding(charsetName)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return r, nil
	}
	return enc.NewDecoder().Reader(r), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	canon := Canonical(name)
	enc, err := ianaindex.MIME.Encoding(canon)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return enc, nil
	}
	// A handful of charsets ianaindex doesn't resolve by MIME name but
	// that show up often enough in the wild to special-case, matching
	// the teacher's own gb2312 special case in third_party/imf/addr.go.
	switch canon {
	case "gb2312", "gbk", "gb18030":
		return simplifiedchinese.GB18030, nil
	case "hz-gb-2312":
		return simplifiedchinese.HZGB2312, nil
	default:
		log.Printf("charset: no encoding for charset %q, passing through", name)
		return nil, nil
	}
}

// ErrUnsupportedCharset is returned by an IconvBackend when it has no
// mapping at all for a requested charset name.
type ErrUnsupportedCharset string

func (e ErrUnsupportedCharset) Error() string {
	return fmt.Sprintf("charset: unsupported charset %q", string(e))
}
