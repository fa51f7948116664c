// Package queue implements the in-memory FIFO owned by the broker
// process. One Queue instance backs the whole pipeline; producers and
// consumers reach it through the broker's HTTP surface, never directly.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned by Put once intake is closed, and by Get
	// after intake is closed and the backlog is fully drained.
	ErrClosed = errors.New("queue: intake closed")

	// ErrFull is returned by Put when the queue is at capacity and the
	// overflow policy is PolicyReject.
	ErrFull = errors.New("queue: at capacity")
)

// Policy selects what Put does when a bounded queue is full.
type Policy int

const (
	// PolicyBlock makes Put wait until space frees up.
	PolicyBlock Policy = iota
	// PolicyReject makes Put fail fast with ErrFull.
	PolicyReject
)

func (p Policy) String() string {
	switch p {
	case PolicyBlock:
		return "block"
	case PolicyReject:
		return "reject"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "block":
		return PolicyBlock, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyBlock, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Options configures a Queue at construction time.
type Options struct {
	// Capacity bounds the queue; 0 means unbounded.
	Capacity int
	// Policy applies only when Capacity > 0.
	Policy Policy
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Enqueued  uint64 `json:"enqueued"`
	Dequeued  uint64 `json:"dequeued"`
	HighWater int    `json:"high_water"`
	Closed    bool   `json:"closed"`
}

// Queue is a FIFO of int64 items guarded by a single mutex. Blocking
// readers and writers park on notify channels that are closed and
// replaced whenever the condition they wait on may have changed.
type Queue struct {
	opts Options

	mu       sync.Mutex
	buf      []int64
	head     int
	closed   bool
	notEmpty chan struct{}
	notFull  chan struct{}

	enqueued  uint64
	dequeued  uint64
	highWater int
}

// New creates a Queue. Capacity < 0 is treated as unbounded.
func New(opts Options) *Queue {
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}
	return &Queue{
		opts:     opts,
		notEmpty: make(chan struct{}),
		notFull:  make(chan struct{}),
	}
}

func (q *Queue) sizeLocked() int { return len(q.buf) - q.head }

// signalNotEmptyLocked wakes every goroutine parked in Get.
func (q *Queue) signalNotEmptyLocked() {
	close(q.notEmpty)
	q.notEmpty = make(chan struct{})
}

// signalNotFullLocked wakes every goroutine parked in Put.
func (q *Queue) signalNotFullLocked() {
	close(q.notFull)
	q.notFull = make(chan struct{})
}

// Put appends an item. On a bounded queue it honors the overflow
// policy; ctx bounds the wait under PolicyBlock.
func (q *Queue) Put(ctx context.Context, item int64) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.opts.Capacity > 0 && q.sizeLocked() >= q.opts.Capacity {
			if q.opts.Policy == PolicyReject {
				q.mu.Unlock()
				return ErrFull
			}
			ch := q.notFull
			q.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		q.buf = append(q.buf, item)
		q.enqueued++
		if sz := q.sizeLocked(); sz > q.highWater {
			q.highWater = sz
		}
		q.signalNotEmptyLocked()
		q.mu.Unlock()
		return nil
	}
}

// Get removes and returns the oldest item, blocking while the queue is
// empty. After CloseIntake the backlog still drains in order; only once
// it is empty does Get return ErrClosed. A done ctx aborts the wait.
func (q *Queue) Get(ctx context.Context) (int64, error) {
	for {
		q.mu.Lock()
		if q.sizeLocked() > 0 {
			item := q.buf[q.head]
			q.head++
			q.dequeued++
			q.compactLocked()
			q.signalNotFullLocked()
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return 0, ErrClosed
		}
		ch := q.notEmpty
		q.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// compactLocked releases consumed backing array space once the dead
// prefix dominates the buffer.
func (q *Queue) compactLocked() {
	if q.head < 64 || q.head*2 < len(q.buf) {
		return
	}
	n := copy(q.buf, q.buf[q.head:])
	q.buf = q.buf[:n]
	q.head = 0
}

// Size reports the number of items currently queued.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sizeLocked()
}

// CloseIntake stops accepting new items and wakes all parked Put and
// Get callers. Items already queued remain readable. Idempotent.
func (q *Queue) CloseIntake() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.signalNotEmptyLocked()
	q.signalNotFullLocked()
}

// Closed reports whether intake has been closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Stats snapshots the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Size:      q.sizeLocked(),
		Capacity:  q.opts.Capacity,
		Enqueued:  q.enqueued,
		Dequeued:  q.dequeued,
		HighWater: q.highWater,
		Closed:    q.closed,
	}
}
