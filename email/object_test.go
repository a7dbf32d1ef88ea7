package email

import (
	"mimetree.dev/email/ctype"
	"mimetree.dev/email/events"
	"testing"
)

func TestMimeObjectContentTypeDefault(t *testing.T) {
	o := NewMimeObject()
	ct := o.ContentType()
	if ct.Type != "application" || ct.Subtype != "octet-stream" {
		t.Fatalf("got %+v", ct)
	}
}

func TestMimeObjectSetContentTypeRoundTrips(t *testing.T) {
	o := NewMimeObject()
	ct := &ctype.ContentType{Type: "text", Subtype: "plain", Params: nil}
	o.SetContentType(ct, events.DefaultFormatOptions())
	if got := o.ContentType(); got.Type != "text" || got.Subtype != "plain" {
		t.Fatalf("got %+v", got)
	}
	raw := o.Header.Get("Content-Type")
	if raw == nil {
		t.Fatal("expected header written")
	}
}

func TestMimeObjectRemovingContentTypeRestoresDefault(t *testing.T) {
	o := NewMimeObject()
	ct := &ctype.ContentType{Type: "text", Subtype: "html", Params: nil}
	o.SetContentType(ct, events.DefaultFormatOptions())
	o.Header.Del("Content-Type")
	got := o.ContentType()
	if got.Type != "application" || got.Subtype != "octet-stream" {
		t.Fatalf("expected default restored, got %+v", got)
	}
}

func TestMimeObjectDispositionClearedOnRemoval(t *testing.T) {
	o := NewMimeObject()
	d := &ctype.Disposition{Value: "attachment"}
	o.SetDisposition(d, events.DefaultFormatOptions())
	if o.Disposition() == nil {
		t.Fatal("expected disposition set")
	}
	o.Header.Del("Content-Disposition")
	if o.Disposition() != nil {
		t.Fatal("expected disposition cleared")
	}
}
