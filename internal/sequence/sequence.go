// Package sequence provides the monotone item counter used by the
// producer and the gap-checking cursor used by the consumer. Together
// they make lost or reordered deliveries observable end to end.
package sequence

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Counter hands out strictly increasing int64 values starting at 0.
type Counter struct {
	next atomic.Int64
}

// NewCounter returns a Counter whose first Next is 0.
func NewCounter() *Counter { return &Counter{} }

// Next returns the current value and advances the counter.
func (c *Counter) Next() int64 { return c.next.Add(1) - 1 }

// Peek returns the value the next call to Next will produce.
func (c *Counter) Peek() int64 { return c.next.Load() }

// OrderingError reports a delivery that broke the contiguous sequence.
type OrderingError struct {
	Got  int64
	Want int64
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering violation: got item %d, want %d", e.Got, e.Want)
}

// Cursor tracks the last verified item and rejects any delivery that is
// not exactly one greater. The zero value expects 0 first.
type Cursor struct {
	mu   sync.Mutex
	prev int64
	seen bool
}

// NewCursor returns a Cursor positioned before item 0.
func NewCursor() *Cursor { return &Cursor{} }

// Advance verifies item continues the sequence. On success the cursor
// moves forward; on a gap or regression it stays put and returns an
// *OrderingError carrying both the received and the expected value.
func (c *Cursor) Advance(item int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := int64(0)
	if c.seen {
		want = c.prev + 1
	}
	if item != want {
		return &OrderingError{Got: item, Want: want}
	}
	c.prev = item
	c.seen = true
	return nil
}

// Prev returns the last verified item, or -1 before the first Advance.
func (c *Cursor) Prev() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seen {
		return -1
	}
	return c.prev
}
