package netlink

import "sync"

// Bus delivers connectivity events to subscribers.
//
// Each subscriber gets its own channel; Publish blocks until every
// subscriber has taken the event or cancelled its subscription, so no
// event is ever silently lost. Subscribers are expected to consume
// promptly (the bootstrap loop does nothing else).
//
// Thread Safety: all methods are safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]*subscriber),
	}
}

// Subscribe registers a new subscriber.
//
// Returns:
//   - <-chan Event: channel the subscriber reads events from
//   - func(): cancel function; releases the subscription and unblocks
//     any publisher waiting on this subscriber
func (b *Bus) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{
		ch:   make(chan Event, 1),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.done)
		})
	}

	return sub.ch, cancel
}

// Publish delivers an event to all current subscribers.
//
// Blocks until each subscriber accepts the event or cancels.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	targets := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
