// Package workerrun starts the worker roles: the producer and
// consumer processes driving the broker's queue through a client
// handle.
package workerrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chute-dev/chute/internal/client"
	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/internal/worker"
	"github.com/chute-dev/chute/pkg/log"
)

// Options carries a worker role's resolved inputs.
type Options struct {
	Config config.Config
	Logger log.Logger
}

func newHandle(opts Options) *client.Handle {
	return client.New(client.Options{
		Endpoint: opts.Config.BrokerEndpoint(),
		WaitMs:   opts.Config.Consumer.WaitMs,
		Logger:   opts.Logger,
	})
}

// RunProduce runs the producing worker until its count is reached, a
// signal arrives, or the queue becomes unusable.
func RunProduce(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := worker.NewProducer(worker.ProducerOptions{
		Handle:   newHandle(opts),
		Logger:   opts.Logger,
		Count:    int64(opts.Config.Producer.Count),
		Interval: time.Duration(opts.Config.Producer.IntervalMs) * time.Millisecond,
	})
	return p.Run(sctx)
}

// RunConsume runs the consuming worker until the queue is closed and
// drained, a signal arrives, or verification fails.
func RunConsume(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := worker.NewConsumer(worker.ConsumerOptions{
		Handle: newHandle(opts),
		Logger: opts.Logger,
	})
	return c.Run(sctx)
}
