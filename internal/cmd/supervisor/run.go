// Package supervisorrun starts the supervisor role: the parent
// process that spawns the broker and workers and oversees the run.
package supervisorrun

import (
	"context"

	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/internal/supervisor"
	"github.com/chute-dev/chute/pkg/log"
)

// Options carries the supervisor role's resolved inputs.
type Options struct {
	Config config.Config
	Logger log.Logger
}

// Run spawns the pipeline and blocks until it ends. Signal handling
// lives inside the supervisor's own loop so the symbolic signal name
// can be logged; no signal context is layered here.
func Run(ctx context.Context, opts Options) error {
	s, err := supervisor.New(supervisor.Options{Config: opts.Config, Logger: opts.Logger})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
