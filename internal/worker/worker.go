// Package worker implements the producer and consumer loops that
// drive a queue through a client handle.
//
// A Producer emits strictly increasing integers starting at zero and
// appends each one to the queue. A Consumer removes items one at a
// time and verifies that delivery is gap-free. Both run until their
// context is cancelled or the pipeline reaches a terminal state: the
// producer finishes its configured count, or the consumer observes
// the queue closed and drained.
package worker

import (
	"context"

	"github.com/chute-dev/chute/internal/client"
)

// Handle is the queue surface the workers drive. *client.Handle
// implements it; tests substitute an in-process fake.
type Handle interface {
	// Put appends item and returns the queue depth after the append.
	Put(ctx context.Context, item int64) (int, error)
	// Get blocks until an item is available or the queue is closed
	// and drained.
	Get(ctx context.Context) (client.GetResult, error)
}
