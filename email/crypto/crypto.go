// Package crypto defines the contract a signing/encryption backend must
// satisfy to plug into this module, and a protocol-keyed registry for
// looking one up (spec §6). No concrete backend — DKIM, PGP, S/MIME —
// ships here: key management, DNS selector lookup, and certificate
// trust are explicitly out of scope (see SPEC_FULL.md's "Dropped teacher
// dependencies"). What this package preserves from the teacher's DKIM
// code is the shape of the call: sign/verify over a byte stream.
package crypto

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// CryptoContext is implemented by a concrete crypto backend (PGP,
// S/MIME, DKIM, ...). Sign/Verify mirror the teacher's
// dkim.Verifier.Verify(ctx, reader) shape, generalized so a signature
// is passed in explicitly rather than parsed out of a DKIM-Signature
// header by the implementation itself.
type CryptoContext interface {
	// Sign returns a detached signature over r, computed with
	// digestName (e.g. "sha256") and whatever identity the backend was
	// configured with via ImportKeys.
	Sign(ctx context.Context, digestName string, r io.Reader) ([]byte, error)

	// Verify reports whether sig is a valid signature over r.
	Verify(ctx context.Context, r io.Reader, sig []byte) error

	// Encrypt returns r's content encrypted for recipients (opaque
	// identifiers in whatever form the backend expects: email addresses,
	// key fingerprints, certificate subjects).
	Encrypt(ctx context.Context, r io.Reader, recipients []string) ([]byte, error)

	// Decrypt returns r's plaintext, using whatever identity ImportKeys
	// configured.
	Decrypt(ctx context.Context, r io.Reader) ([]byte, error)

	// ImportKeys loads key material from r into the backend.
	ImportKeys(ctx context.Context, r io.Reader) error

	// ExportKeys writes the key material for keyIDs to w.
	ExportKeys(ctx context.Context, keyIDs []string, w io.Writer) error

	// DigestID and DigestName translate between a backend's numeric
	// digest identifier and its canonical name (e.g. 2 <-> "sha1"),
	// matching the id/name pair gmime's crypto context exposes so a
	// caller can format a Content-Type "micalg" parameter either way.
	DigestID(name string) int
	DigestName(id int) string
}

// Constructor builds a fresh CryptoContext for a given protocol.
type Constructor func() CryptoContext

// Registry maps a protocol string (typically a MIME type, e.g.
// "application/pgp-encrypted" or "application/pkcs7-mime") to a
// Constructor, the crypto-backend analogue of email.Registry's
// type/subtype → Object mapping (spec §6).
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// DefaultRegistry starts empty: this module ships the contract, not an
// implementation, so callers register their own backend(s) before
// looking one up.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register installs ctor under protocol, replacing any existing
// registration.
func (r *Registry) Register(protocol string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[protocol] = ctor
}

// New builds a CryptoContext for protocol, or reports ok=false if no
// backend is registered for it.
func (r *Registry) New(protocol string) (ctx CryptoContext, ok bool) {
	r.mu.RLock()
	ctor, found := r.ctors[protocol]
	r.mu.RUnlock()
	if !found {
		return nil, false
	}
	return ctor(), true
}

// ErrNoBackend is returned by callers that want a typed error instead
// of a bool when a protocol has no registered backend.
type ErrNoBackend struct{ Protocol string }

func (e *ErrNoBackend) Error() string {
	return fmt.Sprintf("crypto: no backend registered for protocol %q", e.Protocol)
}
