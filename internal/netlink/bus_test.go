package netlink

import (
	"testing"
	"time"
)

func TestBus_PublishToSubscriber(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Kind: LinkStarted})

	select {
	case ev := <-events:
		if ev.Kind != LinkStarted {
			t.Errorf("received kind = %v, want LinkStarted", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_AddressPayload(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(Event{Kind: AddressAcquired, Addr: "192.168.1.23"})

	ev := <-events
	if ev.Addr != "192.168.1.23" {
		t.Errorf("Addr = %q, want %q", ev.Addr, "192.168.1.23")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()

	events1, cancel1 := bus.Subscribe()
	defer cancel1()
	events2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(Event{Kind: LinkDisconnected})

	for i, events := range []<-chan Event{events1, events2} {
		select {
		case ev := <-events:
			if ev.Kind != LinkDisconnected {
				t.Errorf("subscriber %d kind = %v, want LinkDisconnected", i, ev.Kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestBus_CancelUnblocksPublish(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()

	// Fill the subscriber's slot without consuming.
	bus.Publish(Event{Kind: LinkStarted})

	published := make(chan struct{})
	go func() {
		bus.Publish(Event{Kind: LinkDisconnected})
		close(published)
	}()

	// Publisher is blocked on the full slot until the subscription is cancelled.
	select {
	case <-published:
		t.Fatal("publish should block while subscriber slot is full")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock publisher")
	}
}

func TestBus_CancelIdempotent(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()

	cancel()
	cancel() // must not panic

	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

func TestBus_SubscriberCount(t *testing.T) {
	bus := NewBus()

	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}

	_, cancel1 := bus.Subscribe()
	_, cancel2 := bus.Subscribe()

	if got := bus.SubscriberCount(); got != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", got)
	}

	cancel1()
	cancel2()

	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after cancel = %d, want 0", got)
	}
}

func TestBus_PublishNoSubscribers(t *testing.T) {
	bus := NewBus()

	// Must not block or panic.
	bus.Publish(Event{Kind: LinkStarted})
}
