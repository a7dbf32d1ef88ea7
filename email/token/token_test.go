package token

import "testing"

func TestIsAtext(t *testing.T) {
	tests := []struct {
		r          rune
		dot        bool
		permissive bool
		want       bool
	}{
		{'a', false, false, true},
		{'.', false, false, false},
		{'.', true, false, true},
		{'@', false, false, false},
		{'@', false, true, true},
		{'<', false, true, false},
	}
	for _, tc := range tests {
		if got := IsAtext(tc.r, tc.dot, tc.permissive); got != tc.want {
			t.Errorf("IsAtext(%q, %v, %v) = %v, want %v", tc.r, tc.dot, tc.permissive, got, tc.want)
		}
	}
}

func TestCursorSkipCFWS(t *testing.T) {
	c := &Cursor{S: "  (a (nested) comment) rest"}
	if !c.SkipCFWS() {
		t.Fatalf("SkipCFWS failed")
	}
	if c.Rest() != "rest" {
		t.Errorf("Rest() = %q, want %q", c.Rest(), "rest")
	}
}

func TestCursorSkipQuoted(t *testing.T) {
	c := &Cursor{S: `"hello \"world\""trailing`}
	got, err := c.SkipQuoted()
	if err != nil {
		t.Fatal(err)
	}
	if want := `hello "world"`; got != want {
		t.Errorf("SkipQuoted() = %q, want %q", got, want)
	}
	if c.Rest() != "trailing" {
		t.Errorf("Rest() = %q, want %q", c.Rest(), "trailing")
	}
}

func TestCursorSkipAtom(t *testing.T) {
	c := &Cursor{S: "foo.bar@baz"}
	got, err := c.SkipAtom(true, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "foo.bar" {
		t.Errorf("SkipAtom() = %q, want %q", got, "foo.bar")
	}
	if c.Rest() != "@baz" {
		t.Errorf("Rest() = %q, want %q", c.Rest(), "@baz")
	}
}

func TestPSafeESafeDiffer(t *testing.T) {
	// '.' is unsafe in a phrase context (RFC 2047 5.3) but safe in a
	// text (ESafe) context.
	if IsPSafe('.') {
		t.Errorf("'.' should not be PSafe")
	}
	if !IsESafe('.') {
		t.Errorf("'.' should be ESafe")
	}
}
