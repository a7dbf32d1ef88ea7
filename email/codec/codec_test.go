package codec

import "testing"

// TestBase64StepByStep checks spec §8 scenario S6: feeding an encoder
// "Man" one byte at a time then flushing must yield exactly "TWFu\n";
// decoding "TWFu\n" byte-by-byte must yield "Man".
func TestBase64StepByStep(t *testing.T) {
	e := NewBase64Encoder()
	var out []byte
	for _, b := range []byte("Man") {
		out = append(out, e.Step([]byte{b})...)
	}
	out = append(out, e.Flush()...)
	if string(out) != "TWFu\n" {
		t.Fatalf("encode = %q, want %q", out, "TWFu\n")
	}

	d := NewBase64Decoder()
	var got []byte
	for _, b := range []byte("TWFu\n") {
		got = append(got, d.Step([]byte{b})...)
	}
	got = append(got, d.Flush()...)
	if string(got) != "Man" {
		t.Fatalf("decode = %q, want %q", got, "Man")
	}
}

func TestBase64RoundTripChunked(t *testing.T) {
	input := []byte("The quick brown fox jumps over the lazy dog, 0123456789!")
	e := NewBase64Encoder()
	var encoded []byte
	for i := 0; i < len(input); i += 7 {
		end := i + 7
		if end > len(input) {
			end = len(input)
		}
		encoded = append(encoded, e.Step(input[i:end])...)
	}
	encoded = append(encoded, e.Flush()...)

	d := NewBase64Decoder()
	var decoded []byte
	for i := 0; i < len(encoded); i += 5 {
		end := i + 5
		if end > len(encoded) {
			end = len(encoded)
		}
		decoded = append(decoded, d.Step(encoded[i:end])...)
	}
	decoded = append(decoded, d.Flush()...)
	if string(decoded) != string(input) {
		t.Fatalf("round trip = %q, want %q", decoded, input)
	}
}

func TestQPEncodeTrailingSpace(t *testing.T) {
	e := NewQPEncoder()
	out := e.Step([]byte("foo  \nbar"))
	out = append(out, e.Flush()...)
	want := "foo=20=20\nbar"
	if string(out) != want {
		t.Fatalf("encode = %q, want %q", out, want)
	}
}

func TestQPRoundTrip(t *testing.T) {
	input := "Hi \xe2\x98\x83 snowman, trailing tab\t\n"
	e := NewQPEncoder()
	encoded := append(e.Step([]byte(input)), e.Flush()...)

	d := NewQPDecoder()
	decoded := append(d.Step(encoded), d.Flush()...)
	if string(decoded) != input {
		t.Fatalf("round trip = %q, want %q", decoded, input)
	}
}

func TestQPDecodeChunkedAcrossEscape(t *testing.T) {
	d := NewQPDecoder()
	var out []byte
	for _, chunk := range []string{"fo", "o=3", "D", "bar"} {
		out = append(out, d.Step([]byte(chunk))...)
	}
	out = append(out, d.Flush()...)
	if string(out) != "foo=bar" {
		t.Fatalf("decode = %q, want %q", out, "foo=bar")
	}
}

func TestUUEncodeDecodeRoundTrip(t *testing.T) {
	input := []byte("Cat")
	e := NewUUEncoder("cat.txt")
	encoded := append(e.Step(input), e.Flush()...)

	d := NewUUDecoder()
	decoded := append(d.Step(encoded), d.Flush()...)
	if string(decoded) != string(input) {
		t.Fatalf("uuencode round trip = %q, want %q", decoded, input)
	}
}

func TestEncodedWordBase64(t *testing.T) {
	word := EncodeWord("héllo", "UTF-8")
	decoded, err := DecodeWord(word, Loose)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != "héllo" {
		t.Fatalf("decoded = %q, want %q", decoded, "héllo")
	}
}

func TestDecodeHeaderTextElidesInterWordSpace(t *testing.T) {
	s := "=?UTF-8?Q?Hello,?= =?UTF-8?Q?_World!?="
	got := DecodeHeaderText(s, Loose)
	if got != "Hello, World!" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeHeaderTextPreservesOuterSpace(t *testing.T) {
	s := "Subject: =?UTF-8?Q?Hi?="
	got := DecodeHeaderText(s, Loose)
	if got != "Subject: Hi" {
		t.Fatalf("got %q", got)
	}
}
