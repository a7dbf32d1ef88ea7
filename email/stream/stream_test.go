package stream

import (
	"bytes"
	"io"
	"testing"
)

func TestMemStreamReadWrite(t *testing.T) {
	s := NewMemStream()
	if _, err := s.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Errorf("Read = %q, want %q", got, "hello world")
	}
}

// TestSubstreamContract checks spec §8 testable property 6: a substream's
// length and contents match a direct read over the same bounds.
func TestSubstreamContract(t *testing.T) {
	s := NewMemStreamBytes([]byte("0123456789"))
	sub, err := s.Substream(2, 6)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sub.Length(), int64(4); got != want {
		t.Errorf("Length() = %d, want %d", got, want)
	}
	got, err := io.ReadAll(sub)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "2345" {
		t.Errorf("substream Read = %q, want %q", got, "2345")
	}
}

func TestSubstreamCloseDoesNotPropagate(t *testing.T) {
	s := NewMemStreamBytes([]byte("abcdef"))
	sub, err := s.Substream(0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Close(); err != nil {
		t.Fatal(err)
	}
	// The parent is still fully readable.
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcdef" {
		t.Errorf("parent Read after substream Close = %q, want %q", got, "abcdef")
	}
}

func TestBufferedStreamCacheReadBackwardSeek(t *testing.T) {
	under := NewMemStreamBytes([]byte("abcdefghij"))
	buffered := NewBufferedStream(under, CacheRead)

	first := make([]byte, 5)
	if _, err := io.ReadFull(buffered, first); err != nil {
		t.Fatal(err)
	}
	if string(first) != "abcde" {
		t.Fatalf("first read = %q", first)
	}

	if _, err := buffered.Seek(0, Set); err != nil {
		t.Fatal(err)
	}
	replay := make([]byte, 5)
	if _, err := io.ReadFull(buffered, replay); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(replay, first) {
		t.Errorf("replay = %q, want %q", replay, first)
	}
}
