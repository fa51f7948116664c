package worker

import (
	"context"
	"errors"

	"github.com/chute-dev/chute/internal/queue"
	"github.com/chute-dev/chute/internal/sequence"
	"github.com/chute-dev/chute/pkg/log"
)

// Consumer removes items from the queue one at a time and verifies
// that consecutive items differ by exactly one.
type Consumer struct {
	name     string
	handle   Handle
	cursor   *sequence.Cursor
	logger   log.Logger
	consumed int64
}

// ConsumerOptions configures a Consumer.
type ConsumerOptions struct {
	// Name labels log lines. Defaults to "consumer".
	Name string
	// Handle is the queue to drain. Required.
	Handle Handle
	// Logger receives per-item log lines. Defaults to a fresh logger.
	Logger log.Logger
}

// NewConsumer constructs a Consumer with defaults applied.
func NewConsumer(opts ConsumerOptions) *Consumer {
	if opts.Name == "" {
		opts.Name = "consumer"
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	return &Consumer{
		name:   opts.Name,
		handle: opts.Handle,
		cursor: sequence.NewCursor(),
		logger: opts.Logger.With(log.Component(opts.Name)),
	}
}

// Run consumes items until ctx is cancelled or the queue reports
// closed and drained; both return nil. A gap in the sequence returns
// a *sequence.OrderingError, and transport failures are returned
// as-is, so callers can map either to an exit status.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		res, err := c.handle.Get(ctx)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrClosed):
				c.logger.Info("queue closed and drained",
					log.Int64("consumed", c.consumed),
					log.Int64("last_item", c.cursor.Prev()),
				)
				return nil
			case ctx.Err() != nil:
				c.logger.Info("consumer stopped", log.Int64("consumed", c.consumed))
				return nil
			default:
				c.logger.Error("get failed", log.Err(err))
				return err
			}
		}

		c.consumed++
		c.logger.Info("Got Item", log.Int64("item", res.Item), log.Int("queue_size", res.Size))
		if err := c.cursor.Advance(res.Item); err != nil {
			c.logger.Error("ordering check failed", log.Err(err))
			return err
		}
	}
}

// Consumed reports how many items Run has dequeued so far.
func (c *Consumer) Consumed() int64 { return c.consumed }
