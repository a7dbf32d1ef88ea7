package param

import "testing"

func TestParseBareParam(t *testing.T) {
	l := Parse(`; charset=us-ascii; name=foo.txt`, Options{})
	if v, _ := l.Get("charset"); v != "us-ascii" {
		t.Fatalf("charset = %q", v)
	}
	if v, _ := l.Get("name"); v != "foo.txt" {
		t.Fatalf("name = %q", v)
	}
}

func TestParseQuotedParam(t *testing.T) {
	l := Parse(`; filename="my file.txt"`, Options{})
	if v, _ := l.Get("filename"); v != "my file.txt" {
		t.Fatalf("filename = %q", v)
	}
}

func TestParseExtendedSingleValue(t *testing.T) {
	l := Parse(`; filename*=UTF-8''%e2%82%ac%20rates.txt`, Options{})
	v, ok := l.Get("filename")
	if !ok {
		t.Fatal("filename missing")
	}
	if v != "€ rates.txt" {
		t.Fatalf("filename = %q", v)
	}
}

func TestParseContinuation(t *testing.T) {
	l := Parse(`; title*0=foo; title*1=bar`, Options{})
	v, _ := l.Get("title")
	if v != "foobar" {
		t.Fatalf("title = %q", v)
	}
}

func TestParseExtendedContinuation(t *testing.T) {
	l := Parse(`; title*0*=UTF-8''%e2%98%83; title*1*=snow`, Options{})
	v, _ := l.Get("title")
	if v != "☃snow" {
		t.Fatalf("title = %q", v)
	}
}

func TestParseDuplicateWarns(t *testing.T) {
	var warnings []string
	l := Parse(`; name=a; name=b`, Options{WarnFunc: func(offset int64, code, ctx string) {
		warnings = append(warnings, code)
	}})
	v, _ := l.Get("name")
	if v != "a" {
		t.Fatalf("name = %q, want first occurrence", v)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a conflicting-duplicate-parameter warning")
	}
}

func TestEncodeBareToken(t *testing.T) {
	l := &List{Params: []Param{{Name: "charset", Value: "us-ascii"}}}
	got := l.Encode(RFC2231, 78)
	if got != "; charset=us-ascii" {
		t.Fatalf("got %q", got)
	}
}

func TestEncodeQuotesSpaces(t *testing.T) {
	l := &List{Params: []Param{{Name: "name", Value: "my file.txt"}}}
	got := l.Encode(RFC2231, 78)
	if got != `; name="my file.txt"` {
		t.Fatalf("got %q", got)
	}
}

func TestEncodeNonASCIIUsesRFC2231(t *testing.T) {
	l := &List{Params: []Param{{Name: "filename", Value: "café.txt"}}}
	got := l.Encode(RFC2231, 78)
	if got != "; filename*=UTF-8''caf%C3%A9.txt" {
		t.Fatalf("got %q", got)
	}
}
