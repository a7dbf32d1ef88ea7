// Package events carries the format-option struct and the change-event
// bus that email objects use to keep structured properties and their
// header text in sync (spec §4.11, §4.15).
package events

import (
	"sync"

	"github.com/asaskevich/EventBus"
)

// Newline selects the line terminator written by the serializer.
type Newline int

const (
	CRLF Newline = iota
	LF
)

func (n Newline) Bytes() []byte {
	if n == LF {
		return []byte{'\n'}
	}
	return []byte{'\r', '\n'}
}

// ParamEncoding selects how non-ASCII Content-Type/Disposition
// parameters are encoded on the wire (spec §4.5).
type ParamEncoding int

const (
	RFC2231 ParamEncoding = iota
	RFC2047
)

// FormatOptions governs write_to_stream across the whole object tree
// (spec §4.15).
type FormatOptions struct {
	Newline             Newline
	HiddenHeaders       map[string]bool
	ParamEncodingMethod ParamEncoding
	IncludeHeaders      bool // false for an engine building only the body
	MaxLineLength       int
	// EnsureNewline forces a trailing newline onto a part's encoded
	// body if its codec didn't already emit one.
	EnsureNewline bool
}

// DefaultFormatOptions mirrors gmime's format defaults: CRLF, 2231
// parameter encoding, 78-column soft wrap, headers included, and part
// bodies written as they are, with no trailing newline added.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		Newline:             CRLF,
		ParamEncodingMethod: RFC2231,
		IncludeHeaders:      true,
		MaxLineLength:       78,
		EnsureNewline:       false,
	}
}

func (o FormatOptions) Hidden(name string) bool {
	return o.HiddenHeaders != nil && o.HiddenHeaders[name]
}

// Bus wraps asaskevich/EventBus with the per-publisher block/unblock
// guard spec §4.11's property/header synchronization rule requires:
// a listener that itself triggered a change must not react to the
// event it caused.
type Bus struct {
	inner   EventBus.Bus
	mu      sync.Mutex
	blocked map[string]int
}

// NewBus returns a ready-to-use Bus.
func NewBus() *Bus {
	return &Bus{inner: EventBus.New(), blocked: make(map[string]int)}
}

// Subscribe registers fn for topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.inner.Subscribe(topic, fn)
}

// Unsubscribe removes fn from topic.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.inner.Unsubscribe(topic, fn)
}

// Publish fans out topic to subscribers unless the topic is currently
// blocked (see Block/Unblock).
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.mu.Lock()
	blocked := b.blocked[topic] > 0
	b.mu.Unlock()
	if blocked {
		return
	}
	b.inner.Publish(topic, args...)
}

// Block suppresses delivery of topic until a matching Unblock. Calls
// nest: a topic blocked twice needs two Unblocks before events flow
// again. Call this around a property setter's own header write so its
// header-changed listener does not re-parse the value it just wrote.
func (b *Bus) Block(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocked[topic]++
}

// Unblock reverses one Block call.
func (b *Bus) Unblock(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blocked[topic] > 0 {
		b.blocked[topic]--
	}
}
