// Package brokerrun starts the broker role: the process that owns the
// shared queue and serves it over HTTP.
package brokerrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chute-dev/chute/internal/broker"
	"github.com/chute-dev/chute/internal/config"
	httpserver "github.com/chute-dev/chute/internal/server/http"
	"github.com/chute-dev/chute/pkg/log"
)

// Options carries the broker role's resolved inputs.
type Options struct {
	Config config.Config
	Logger log.Logger
}

// Run opens the broker runtime and serves its HTTP API until ctx is
// cancelled or a signal arrives. The queue dies with the process.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the caller's so the role is
	// usable from contexts that are not signal-aware.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := broker.Open(broker.Options{Config: opts.Config, Logger: opts.Logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := httpserver.New(rt, opts.Logger)
	return srv.ListenAndServe(sctx, opts.Config.Broker.ListenAddr)
}
