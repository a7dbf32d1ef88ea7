package email

import (
	"strings"
	"sync"
)

// Constructor builds an empty Object around o, to be populated by the
// parser feeding it headers and body (spec §4.11).
type Constructor func(o *MimeObject) Object

// Registry maps (type, subtype) — wildcard '*' allowed on either side
// — to a Constructor (spec §4.11).
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// DefaultRegistry is populated with this module's own constructors:
// Multipart for "multipart/*", MessagePart for "message/rfc822", and
// Part for the catch-all "*/*"; callers can Register more specific
// constructors (e.g. an "application/pkcs7-mime" type) or replace these
// without forking this registry.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("multipart", "*", func(o *MimeObject) Object {
		return &Multipart{MimeObject: o}
	})
	DefaultRegistry.Register("message", "rfc822", func(o *MimeObject) Object {
		return &MessagePart{MimeObject: o}
	})
	DefaultRegistry.Register("*", "*", func(o *MimeObject) Object {
		return &Part{MimeObject: o}
	})
}

// NewRegistry returns an empty registry (no default constructors).
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

func registryKey(typ, subtype string) string {
	return strings.ToLower(typ) + "/" + strings.ToLower(subtype)
}

// Register installs ctor for (typ, subtype), either of which may be
// "*".
func (r *Registry) Register(typ, subtype string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[registryKey(typ, subtype)] = ctor
}

// Construct builds an Object for (typ, subtype) around o, resolving
// through exact match, subtype wildcard ("typ/*"), type wildcard
// ("*/subtype"), then finally the module's own Part/Multipart default
// depending on typ (spec §4.11's precedence chain). o's ContentType
// should already reflect typ/subtype (or its application/octet-stream
// / text/plain default) by the time Construct is called; this method
// only resolves which concrete Go type to instantiate.
func (r *Registry) Construct(typ, subtype string, o *MimeObject) Object {
	typ, subtype = strings.ToLower(typ), strings.ToLower(subtype)
	r.mu.RLock()
	ctor, ok := r.ctors[registryKey(typ, subtype)]
	if !ok {
		ctor, ok = r.ctors[registryKey(typ, "*")]
	}
	if !ok {
		ctor, ok = r.ctors[registryKey("*", subtype)]
	}
	if !ok {
		ctor, ok = r.ctors[registryKey("*", "*")]
	}
	r.mu.RUnlock()
	if ok {
		return ctor(o)
	}
	if typ == "multipart" {
		return &Multipart{MimeObject: o}
	}
	return &Part{MimeObject: o}
}
