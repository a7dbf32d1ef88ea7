//go:build cgo_iconv

package charset

import (
	"bytes"
	"io"
	"io/ioutil"

	iconv "gopkg.in/iconv.v1"
)

// CGOBackend is an alternate IconvBackend backed by the system iconv(3)
// library via gopkg.in/iconv.v1, the same dependency
// flashmob-go-guerrilla pulls in for this exact collaborator contract.
// It is only built when the cgo_iconv tag is set, since it requires cgo
// and a system libiconv.
type CGOBackend struct{}

func (CGOBackend) Reader(charsetName string, r io.Reader) (io.Reader, error) {
	cd, err := iconv.Open("UTF-8", Canonical(charsetName))
	if err != nil {
		return nil, ErrUnsupportedCharset(charsetName)
	}
	in, err := ioutil.ReadAll(r)
	if err != nil {
		cd.Close()
		return nil, err
	}
	out, err := cd.Conv(string(in))
	cd.Close()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader([]byte(out)), nil
}
