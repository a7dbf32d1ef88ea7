package addr

import "strings"

// Address is the RFC 5322 "address" sum type (spec §4.7): either a
// single Mailbox or a named Group of Mailboxes. Grounded on the
// teacher's trivial email.Address{Name, Addr}, expanded into the
// group-aware model the original gmime library exposes.
type Address interface {
	isAddress()
	// String renders the address the way it would appear unfolded in a
	// header value (display name plus angle-addr, or "name: a, b;").
	String() string
}

// Mailbox is a single "name-addr" or "addr-spec".
type Mailbox struct {
	Name string // display name, may be empty
	Addr Spec
}

func (*Mailbox) isAddress() {}

func (m *Mailbox) String() string {
	if m.Name == "" {
		return m.Addr.String()
	}
	return quotePhrase(m.Name) + " <" + m.Addr.String() + ">"
}

// Spec is a local-part@domain pair. Domain is the original (possibly
// Unicode) form; imf.ASCIIDomain computes its ASCII-compatible form on
// demand through an IDN backend (spec §4.7's get_idn_addr).
type Spec struct {
	LocalPart string
	Domain    string
}

func (s Spec) String() string {
	if s.Domain == "" {
		return quoteLocalPart(s.LocalPart)
	}
	return quoteLocalPart(s.LocalPart) + "@" + s.Domain
}

// Group is a named list of mailboxes, e.g. "Undisclosed: a@b, c@d;".
type Group struct {
	Name      string
	Mailboxes []*Mailbox
}

func (*Group) isAddress() {}

func (g *Group) String() string {
	var sb strings.Builder
	sb.WriteString(quotePhrase(g.Name))
	sb.WriteString(": ")
	for i, m := range g.Mailboxes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(m.String())
	}
	sb.WriteString(";")
	return sb.String()
}

// AddressList is an ordered sequence of Address (mailboxes and/or
// groups), the value type of To/Cc/Bcc/Sender/etc. Mutations publish a
// HeaderListChanged event once wired to a Header (spec §4.12).
type AddressList struct {
	Addresses []Address
}

// Flatten returns every Mailbox in the list, expanding groups in order.
func (l *AddressList) Flatten() []*Mailbox {
	var out []*Mailbox
	for _, a := range l.Addresses {
		switch v := a.(type) {
		case *Mailbox:
			out = append(out, v)
		case *Group:
			out = append(out, v.Mailboxes...)
		}
	}
	return out
}

func (l *AddressList) String() string {
	parts := make([]string, len(l.Addresses))
	for i, a := range l.Addresses {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func quotePhrase(s string) string {
	if s == "" {
		return ""
	}
	if isPlainPhrase(s) {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '"' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	sb.WriteByte('"')
	return sb.String()
}

func isPlainPhrase(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == ' ' || b == '.' || b == '-' || b == '_' || b == '\'':
		default:
			return false
		}
	}
	return true
}

func quoteLocalPart(s string) string {
	if isPlainPhrase(strings.ReplaceAll(s, ".", "")) && !strings.Contains(s, " ") {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '"' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	sb.WriteByte('"')
	return sb.String()
}
