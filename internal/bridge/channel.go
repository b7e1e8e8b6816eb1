package bridge

import (
	"sync"
	"time"
)

// Forever makes Send and Receive wait indefinitely.
const Forever = time.Duration(-1)

// ByteChannel is a fixed-capacity byte queue joining one producer to
// one consumer.
//
// Capacity is tracked in bytes, not frames: a Send may be accepted
// partially if the channel fills first, and a Receive returns whatever
// contiguous run of bytes is available up to the caller's buffer size.
// Byte order from the single producer is preserved to the single
// consumer.
//
// Exactly one goroutine may send and one may receive for the channel's
// lifetime. Close unblocks both sides; a closed channel accepts no
// further bytes and drains to empty.
type ByteChannel struct {
	mu     sync.Mutex
	buf    []byte
	head   int
	size   int
	closed bool

	// Single-slot wakeup channels. With one producer and one consumer
	// there is at most one waiter per side, so a buffered token never
	// gets lost; a stale token only causes one harmless recheck.
	notEmpty chan struct{}
	notFull  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewByteChannel creates a channel holding at most capacity bytes.
func NewByteChannel(capacity int) *ByteChannel {
	return &ByteChannel{
		buf:      make([]byte, capacity),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Send copies bytes from p into the channel, waiting up to timeout for
// space. Returns the number of bytes accepted, which is less than
// len(p) if the channel fills before the timeout expires. Pass Forever
// to wait indefinitely.
//
// Callers moving fixed-size frames must treat a short accept as a
// failed transfer for the whole frame.
func (c *ByteChannel) Send(p []byte, timeout time.Duration) int {
	deadline := makeDeadline(timeout)

	accepted := 0
	for accepted < len(p) {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return accepted
		}
		if free := len(c.buf) - c.size; free > 0 {
			n := free
			if remaining := len(p) - accepted; n > remaining {
				n = remaining
			}
			c.push(p[accepted : accepted+n])
			accepted += n
			c.mu.Unlock()
			signal(c.notEmpty)
			continue
		}
		c.mu.Unlock()

		if !c.await(c.notFull, timeout, deadline) {
			break
		}
	}
	return accepted
}

// Receive copies bytes from the channel into buf, waiting up to
// timeout for data. Returns the number of bytes received, up to
// len(buf); it does not wait for buf to fill once any data is
// available. Pass Forever to wait indefinitely.
//
// Returns 0 on timeout, or once the channel is closed and drained.
func (c *ByteChannel) Receive(buf []byte, timeout time.Duration) int {
	deadline := makeDeadline(timeout)

	for {
		c.mu.Lock()
		if c.size > 0 {
			n := c.pop(buf)
			c.mu.Unlock()
			signal(c.notFull)
			return n
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return 0
		}
		if !c.await(c.notEmpty, timeout, deadline) {
			return 0
		}
	}
}

// Close marks the channel closed and wakes any blocked Send or
// Receive. Safe to call multiple times.
func (c *ByteChannel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

// Len returns the number of bytes currently resident.
func (c *ByteChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Cap returns the channel's fixed byte capacity.
func (c *ByteChannel) Cap() int {
	return len(c.buf)
}

// push appends bytes to the ring. Caller holds the lock and has
// verified space.
func (c *ByteChannel) push(p []byte) {
	tail := (c.head + c.size) % len(c.buf)
	n := copy(c.buf[tail:], p)
	if n < len(p) {
		copy(c.buf, p[n:])
	}
	c.size += len(p)
}

// pop removes up to len(buf) bytes from the ring. Caller holds the
// lock and has verified data is present.
func (c *ByteChannel) pop(buf []byte) int {
	n := c.size
	if n > len(buf) {
		n = len(buf)
	}

	first := copy(buf[:n], c.buf[c.head:])
	if first < n {
		copy(buf[first:n], c.buf)
	}

	c.head = (c.head + n) % len(c.buf)
	c.size -= n
	return n
}

// await blocks until the wakeup channel fires, the deadline passes, or
// the channel is closed. Returns false when the caller should stop
// waiting without rechecking state changes from a wakeup.
func (c *ByteChannel) await(wake <-chan struct{}, timeout time.Duration, deadline time.Time) bool {
	if timeout < 0 {
		select {
		case <-wake:
			return true
		case <-c.done:
			return true // recheck: drain remaining data before reporting closed
		}
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-wake:
		return true
	case <-c.done:
		return true
	case <-timer.C:
		return false
	}
}

// makeDeadline converts a timeout to an absolute deadline.
// A negative timeout (Forever) yields the zero time, which await
// never consults.
func makeDeadline(timeout time.Duration) time.Time {
	if timeout < 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// signal posts a non-blocking wakeup token.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
