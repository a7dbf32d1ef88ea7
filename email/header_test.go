package email

import (
	"bytes"
	"strings"
	"testing"
)

var headers = []HeaderEntry{
	{Key: "Subject", Value: []byte("hello world")},
	{Key: "References", Value: []byte("<a@example.com> <b@example.com> <c@example.com>")},
	{Key: "X-Custom-Header", Value: []byte(tooLongValue)},
}

// tooLongValue is a 1040-byte token with no whitespace, longer than the
// 998-byte hard line limit.
var tooLongValue = strings.Repeat("unbrokentoken", 80)

func TestEncode(t *testing.T) {
	h := new(Header)
	for _, header := range headers {
		h.Add(header.Key, header.Value)
	}
	buf := new(bytes.Buffer)
	if _, err := h.Encode(buf); err != nil {
		t.Errorf("encode failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "Subject: hello world\r\n") {
		t.Errorf("missing Subject line in %q", got)
	}
	if !strings.Contains(got, "References: <a@example.com> <b@example.com> <c@example.com>\r\n") {
		t.Errorf("missing References line in %q", got)
	}
	if !strings.Contains(got, "X-Custom-Header: ") {
		t.Errorf("missing X-Custom-Header line in %q", got)
	}
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Errorf("expected header block to end with a blank line, got %q", got)
	}
	// the unbroken value has nowhere to fold at the 78-column soft
	// limit, so the encoder must fall back to a single continuation
	// break at the 998-byte hard limit instead of dropping bytes.
	if !strings.Contains(got, "\r\n    ") {
		t.Errorf("expected a folded continuation line in %q", got)
	}
	joined := strings.ReplaceAll(strings.ReplaceAll(got, "\r\n    ", ""), "\r\n", "")
	if !strings.Contains(joined, tooLongValue) {
		t.Errorf("folding lost bytes from the long header value")
	}
}

var keyTests = []struct {
	in, out string
}{
	{"content-id", "Content-ID"},
	{"Content-Id", "Content-ID"},
	{"cc", "CC"},
	{"Cc", "CC"},
	{"mime-version", "MIME-Version"},
	{"message-id", "Message-ID"},
	{"never-heard-of-it", "Never-Heard-Of-It"},
	{"busted--key", "Busted--Key"},
	{"odd-_key_", "Odd-_key_"},
}

func TestCanonicalKey(t *testing.T) {
	for _, test := range keyTests {
		t.Run(test.in, func(t *testing.T) {
			if got := CanonicalKey([]byte(test.in)); got != Key(test.out) {
				t.Errorf("CanonicalKey(%q)=%q, want %q", test.in, got, test.out)
			}
		})
	}
}

func BenchmarkCanonicalKey(b *testing.B) {
	hdr := []byte("Content-Id")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		CanonicalKey(hdr)
	}
}
