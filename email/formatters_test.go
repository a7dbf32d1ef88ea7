package email

import (
	"bytes"
	"testing"

	"mimetree.dev/email/addr"
	"mimetree.dev/email/events"
)

func TestHeaderValueDecodesAddressList(t *testing.T) {
	h := &Header{}
	h.Add("From", []byte("Barry Gibbs <bg@example.com>"))
	got, err := h.Value("From")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Barry Gibbs <bg@example.com>" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderValueDecodesEncodedWord(t *testing.T) {
	h := &Header{}
	h.Add("Subject", []byte("=?UTF-8?B?aGVsbG8=?="))
	got, err := h.Value("Subject")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderSetAddressListBlocksReentrant(t *testing.T) {
	h := &Header{}
	fired := 0
	h.bus().Subscribe(topicHeaderListChanged, func(action string, k Key) { fired++ })
	h.SetAddressList("To", &addr.AddressList{}, events.DefaultFormatOptions())
	if fired != 0 {
		t.Fatalf("expected blocked publish, got %d", fired)
	}
	h.Add("Cc", []byte("a@b.c"))
	if fired != 1 {
		t.Fatalf("expected one unblocked publish, got %d", fired)
	}
}

func TestCanonicalKeyMatchesFormatterTableKeys(t *testing.T) {
	for k := range formatterTable {
		if got := CanonicalKey([]byte(k)); got != k {
			t.Errorf("CanonicalKey(%q) = %q, want %q (formatter table key must be canonical)", k, got, k)
		}
	}
}

func TestHeaderEncodePreservesRawName(t *testing.T) {
	h := &Header{}
	h.AddRaw("x-custom-header", "X-Custom-Header", []byte("v"), 0)
	var buf bytes.Buffer
	if _, err := h.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("x-custom-header: v\r\n")) {
		t.Fatalf("got %q", buf.String())
	}
}
