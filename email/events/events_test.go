package events

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	b := NewBus()
	got := 0
	if err := b.Subscribe("changed", func(n int) { got = n }); err != nil {
		t.Fatal(err)
	}
	b.Publish("changed", 7)
	if got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestBusBlockSuppressesDelivery(t *testing.T) {
	b := NewBus()
	calls := 0
	if err := b.Subscribe("changed", func() { calls++ }); err != nil {
		t.Fatal(err)
	}
	b.Block("changed")
	b.Publish("changed")
	b.Unblock("changed")
	b.Publish("changed")
	if calls != 1 {
		t.Fatalf("got %d calls", calls)
	}
}

func TestFormatOptionsHidden(t *testing.T) {
	o := DefaultFormatOptions()
	o.HiddenHeaders = map[string]bool{"Bcc": true}
	if !o.Hidden("Bcc") || o.Hidden("To") {
		t.Fatal("hidden lookup wrong")
	}
}
