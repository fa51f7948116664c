package worker

import (
	"context"
	"time"

	"github.com/chute-dev/chute/internal/sequence"
	"github.com/chute-dev/chute/pkg/log"
)

// Producer appends a strictly increasing integer sequence to the
// queue, one item per iteration, starting at zero.
type Producer struct {
	name     string
	handle   Handle
	counter  *sequence.Counter
	logger   log.Logger
	count    int64
	interval time.Duration
}

// ProducerOptions configures a Producer.
type ProducerOptions struct {
	// Name labels log lines. Defaults to "producer".
	Name string
	// Handle is the queue to append to. Required.
	Handle Handle
	// Logger receives per-item log lines. Defaults to a fresh logger.
	Logger log.Logger
	// Count limits how many items to produce. Zero means unlimited.
	Count int64
	// Interval throttles production; zero produces as fast as the
	// queue accepts.
	Interval time.Duration
}

// NewProducer constructs a Producer with defaults applied.
func NewProducer(opts ProducerOptions) *Producer {
	if opts.Name == "" {
		opts.Name = "producer"
	}
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	return &Producer{
		name:     opts.Name,
		handle:   opts.Handle,
		counter:  sequence.NewCounter(),
		logger:   opts.Logger.With(log.Component(opts.Name)),
		count:    opts.Count,
		interval: opts.Interval,
	}
}

// Run produces items until ctx is cancelled, the configured count is
// reached, or the queue becomes unusable. Cancellation and count
// completion return nil; queue errors are returned as-is so callers
// can map them to an exit status.
func (p *Producer) Run(ctx context.Context) error {
	p.logger.Info("producer started",
		log.Int64("count", p.count),
		log.Dur("interval", p.interval),
	)
	for {
		if p.count > 0 && p.counter.Peek() >= p.count {
			p.logger.Info("production complete", log.Int64("produced", p.counter.Peek()))
			return nil
		}
		if ctx.Err() != nil {
			p.logStop()
			return nil
		}

		item := p.counter.Next()
		size, err := p.handle.Put(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				p.logStop()
				return nil
			}
			p.logger.Error("put failed", log.Int64("item", item), log.Err(err))
			return err
		}
		p.logger.Info("Added Item", log.Int64("item", item), log.Int("queue_size", size))

		if p.interval > 0 {
			select {
			case <-ctx.Done():
				p.logStop()
				return nil
			case <-time.After(p.interval):
			}
		}
	}
}

// Produced reports how many items have been handed to Put so far.
func (p *Producer) Produced() int64 { return p.counter.Peek() }

func (p *Producer) logStop() {
	p.logger.Info("producer stopped", log.Int64("produced", p.counter.Peek()))
}
