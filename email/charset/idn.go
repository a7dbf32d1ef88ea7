package charset

import "golang.org/x/net/idna"

// IDNBackend is the IDN collaborator named in spec §6: convert a domain
// between its Unicode and ASCII-compatible (punycode) forms.
type IDNBackend interface {
	ToASCII(unicode string) (string, error)
	ToUnicode(ascii string) (string, error)
}

// DefaultIDN is the package-wide IDNBackend, backed by golang.org/x/net/idna.
var DefaultIDN IDNBackend = netIDN{}

type netIDN struct{}

func (netIDN) ToASCII(s string) (string, error)   { return idna.Lookup.ToASCII(s) }
func (netIDN) ToUnicode(s string) (string, error) { return idna.Lookup.ToUnicode(s) }
