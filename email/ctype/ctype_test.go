package ctype

import (
	"testing"

	"mimetree.dev/email/param"
)

func TestParseContentTypeBasic(t *testing.T) {
	ct := ParseContentType(`text/plain; charset=utf-8`, 0, param.Options{})
	if ct.Type != "text" || ct.Subtype != "plain" {
		t.Fatalf("got %s/%s", ct.Type, ct.Subtype)
	}
	if ct.Charset() != "utf-8" {
		t.Fatalf("charset = %q", ct.Charset())
	}
}

func TestParseContentTypeMissingSlashFallsBack(t *testing.T) {
	var warned bool
	ct := ParseContentType(`garbage`, 0, param.Options{WarnFunc: func(offset int64, code, ctx string) { warned = true }})
	if !ct.IsType("application", "octet-stream") {
		t.Fatalf("got %s/%s, want fallback", ct.Type, ct.Subtype)
	}
	if !warned {
		t.Fatal("expected a warning")
	}
}

func TestIsTypeWildcard(t *testing.T) {
	ct := ParseContentType(`image/png`, 0, param.Options{})
	if !ct.IsType("image", "*") {
		t.Fatal("expected image/* to match")
	}
	if ct.IsType("text", "*") {
		t.Fatal("text/* should not match image/png")
	}
}

func TestParseDispositionAttachment(t *testing.T) {
	d := ParseDisposition(`attachment; filename="report.pdf"`, 0, param.Options{})
	if !d.IsAttachment() {
		t.Fatal("expected attachment")
	}
	if v, _ := d.Params.Get("filename"); v != "report.pdf" {
		t.Fatalf("filename = %q", v)
	}
}
