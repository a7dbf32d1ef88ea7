package mimeparser

import (
	"strings"
	"testing"

	"mimetree.dev/email"
)

func mustPart(t *testing.T, o email.Object) *email.Part {
	t.Helper()
	p, ok := o.(*email.Part)
	if !ok {
		t.Fatalf("got %T, want *email.Part", o)
	}
	return p
}

func mustMultipart(t *testing.T, o email.Object) *email.Multipart {
	t.Helper()
	mp, ok := o.(*email.Multipart)
	if !ok {
		t.Fatalf("got %T, want *email.Multipart", o)
	}
	return mp
}

func mustMessagePart(t *testing.T, o email.Object) *email.MessagePart {
	t.Helper()
	mp, ok := o.(*email.MessagePart)
	if !ok {
		t.Fatalf("got %T, want *email.MessagePart", o)
	}
	return mp
}

func bodyString(t *testing.T, p *email.Part) string {
	t.Helper()
	b, err := p.Body.Decoded()
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestParseSimpleMessage(t *testing.T) {
	raw := "Subject: hi\r\nFrom: a@example.com\r\n\r\nhello world"
	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject() != "hi" {
		t.Errorf("Subject() = %q, want %q", msg.Subject(), "hi")
	}
	p := mustPart(t, msg.Body)
	if got := bodyString(t, p); got != "hello world" {
		t.Errorf("body = %q, want %q", got, "hello world")
	}
	if p.ContentType().Type != "text" || p.ContentType().Subtype != "plain" {
		t.Errorf("content-type = %v, want text/plain default", p.ContentType())
	}
}

func TestParseMultipartMixed(t *testing.T) {
	raw := "" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"preamble text\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"part one\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>part two</p>\r\n" +
		"--XYZ--\r\n" +
		"epilogue text"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	mp := mustMultipart(t, msg.Body)
	if mp.ContentType().Subtype != "mixed" {
		t.Fatalf("subtype = %q, want mixed", mp.ContentType().Subtype)
	}
	if !strings.Contains(string(mp.Preamble), "preamble text") {
		t.Errorf("preamble = %q", mp.Preamble)
	}
	if !strings.Contains(string(mp.Epilogue), "epilogue text") {
		t.Errorf("epilogue = %q", mp.Epilogue)
	}
	if len(mp.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(mp.Children))
	}
	p0 := mustPart(t, mp.Children[0])
	if got := bodyString(t, p0); got != "part one" {
		t.Errorf("child 0 body = %q, want %q", got, "part one")
	}
	p1 := mustPart(t, mp.Children[1])
	if p1.ContentType().Subtype != "html" {
		t.Errorf("child 1 subtype = %q, want html", p1.ContentType().Subtype)
	}
}

func TestParseMultipartDigestDefaultsChildToMessageRFC822(t *testing.T) {
	raw := "" +
		"Content-Type: multipart/digest; boundary=B\r\n" +
		"\r\n" +
		"--B\r\n" +
		"\r\n" +
		"Subject: nested\r\n" +
		"\r\n" +
		"nested body\r\n" +
		"--B--\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	mp := mustMultipart(t, msg.Body)
	child := mustMessagePart(t, mp.Children[0])
	if child.ContentType().Type != "message" || child.ContentType().Subtype != "rfc822" {
		t.Errorf("child content-type = %v, want message/rfc822 default", child.ContentType())
	}
	if child.Nested == nil {
		t.Fatal("child.Nested is nil, want a recursively parsed *email.Message")
	}
	if child.Nested.Subject() != "nested" {
		t.Errorf("child.Nested.Subject() = %q, want %q", child.Nested.Subject(), "nested")
	}
	nestedPart := mustPart(t, child.Nested.Body)
	if got := bodyString(t, nestedPart); got != "nested body" {
		t.Errorf("child.Nested body = %q, want %q", got, "nested body")
	}
}

func TestParseUnterminatedMultipartWarns(t *testing.T) {
	raw := "" +
		"Content-Type: multipart/mixed; boundary=Z\r\n" +
		"\r\n" +
		"--Z\r\n" +
		"\r\n" +
		"no closing boundary here"

	var warnings []string
	msg, err := ParseOptions([]byte(raw), Options{
		Warn: func(offset int64, code, context string) { warnings = append(warnings, code) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Error("expected an unterminated-multipart warning")
	}
	mp := mustMultipart(t, msg.Body)
	if len(mp.Children) != 1 {
		t.Fatalf("len(Children) = %d, want 1", len(mp.Children))
	}
}

func TestParseNestedMultipart(t *testing.T) {
	raw := "" +
		"Content-Type: multipart/mixed; boundary=OUTER\r\n" +
		"\r\n" +
		"--OUTER\r\n" +
		"Content-Type: multipart/alternative; boundary=INNER\r\n" +
		"\r\n" +
		"--INNER\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain\r\n" +
		"--INNER\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<b>html</b>\r\n" +
		"--INNER--\r\n" +
		"--OUTER--\r\n"

	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	outer := mustMultipart(t, msg.Body)
	if len(outer.Children) != 1 {
		t.Fatalf("len(outer.Children) = %d, want 1", len(outer.Children))
	}
	inner := mustMultipart(t, outer.Children[0])
	if inner.ContentType().Subtype != "alternative" {
		t.Errorf("inner subtype = %q, want alternative", inner.ContentType().Subtype)
	}
	if len(inner.Children) != 2 {
		t.Fatalf("len(inner.Children) = %d, want 2", len(inner.Children))
	}
}

func TestParseMissingBoundaryFallsBackToPart(t *testing.T) {
	raw := "Content-Type: multipart/mixed\r\n\r\nstray body, no boundary param"
	var warnings []string
	msg, err := ParseOptions([]byte(raw), Options{
		Warn: func(offset int64, code, context string) { warnings = append(warnings, code) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Error("expected a missing-boundary warning")
	}
	mustPart(t, msg.Body)
}

func TestParseRoundTripsMessageIDAndDate(t *testing.T) {
	raw := "Message-ID: <abc@example.com>\r\nDate: Tue, 1 Jan 2019 10:00:00 +0000\r\n\r\nbody"
	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if msg.MessageID() != "<abc@example.com>" {
		t.Errorf("MessageID() = %q", msg.MessageID())
	}
	if _, ok := msg.Date(); !ok {
		t.Error("Date() reported failure parsing a well-formed date")
	}
}
