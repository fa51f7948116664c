// Package broker wires the shared queue, metrics and run identity into
// the runtime behind the HTTP surface. Exactly one broker process owns
// the queue for a pipeline run; every other process is a client.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/internal/metrics"
	"github.com/chute-dev/chute/internal/queue"
	"github.com/chute-dev/chute/pkg/id"
	"github.com/chute-dev/chute/pkg/log"
)

// maxGetWait caps the long-poll window a client may request.
const maxGetWait = 60 * time.Second

// Options for building the Runtime.
type Options struct {
	Config config.Config
	Logger log.Logger
	// RunID correlates this broker with the supervisor that spawned
	// it. Zero means generate a fresh one.
	RunID id.RunID
}

// Runtime owns the queue for one pipeline run.
type Runtime struct {
	cfg     config.Config
	logger  log.Logger
	runID   id.RunID
	queue   *queue.Queue
	metrics *metrics.Metrics
	started time.Time
}

// Open validates the queue configuration and builds a Runtime.
func Open(opts Options) (*Runtime, error) {
	policy, err := queue.ParsePolicy(opts.Config.Broker.FullPolicy)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	runID := opts.RunID
	if runID.IsZero() {
		runID = id.NewRunID()
	}

	r := &Runtime{
		cfg:    opts.Config,
		logger: logger.With(log.Component("broker"), log.Str("run_id", runID.String())),
		runID:  runID,
		queue: queue.New(queue.Options{
			Capacity: opts.Config.Broker.Capacity,
			Policy:   policy,
		}),
		metrics: metrics.New(),
		started: time.Now(),
	}
	r.logger.Info("queue ready",
		log.Int("capacity", opts.Config.Broker.Capacity),
		log.Str("full_policy", policy.String()),
	)
	return r, nil
}

// Close releases any parked clients by closing intake. Safe to call
// more than once.
func (r *Runtime) Close() error {
	r.queue.CloseIntake()
	return nil
}

// RunID returns the identifier of this pipeline run.
func (r *Runtime) RunID() id.RunID { return r.runID }

// Config returns the runtime configuration.
func (r *Runtime) Config() config.Config { return r.cfg }

// Metrics returns the broker's collector set.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Logger returns the broker-scoped logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// CheckHealth reports whether the runtime can serve traffic.
func (r *Runtime) CheckHealth(_ context.Context) error {
	if r.queue == nil {
		return errors.New("queue not initialized")
	}
	return nil
}

// Put appends an item to the queue, honoring capacity policy.
func (r *Runtime) Put(ctx context.Context, item int64) error {
	err := r.queue.Put(ctx, item)
	switch {
	case err == nil:
		r.metrics.RecordPut("ok")
		r.logger.Debug("item enqueued", log.Int64("item", item), log.Int("size", r.queue.Size()))
	case errors.Is(err, queue.ErrClosed):
		r.metrics.RecordPut("closed")
	case errors.Is(err, queue.ErrFull):
		r.metrics.RecordPut("full")
	}
	r.observeQueue()
	return err
}

// Get removes the oldest item, waiting up to wait for one to arrive.
// The second return is false when the window elapsed with the queue
// still empty. ErrClosed surfaces once intake is closed and drained.
func (r *Runtime) Get(ctx context.Context, wait time.Duration) (int64, bool, error) {
	if wait <= 0 {
		wait = time.Duration(r.cfg.Consumer.WaitMs) * time.Millisecond
	}
	if wait > maxGetWait {
		wait = maxGetWait
	}
	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	item, err := r.queue.Get(wctx)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		r.metrics.RecordGet("ok", elapsed)
		r.observeQueue()
		r.logger.Debug("item dequeued", log.Int64("item", item), log.Int("size", r.queue.Size()))
		return item, true, nil
	case errors.Is(err, queue.ErrClosed):
		r.metrics.RecordGet("closed", elapsed)
		return 0, false, err
	case ctx.Err() != nil:
		// The caller went away; not an empty window.
		return 0, false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		r.metrics.RecordGet("empty", elapsed)
		return 0, false, nil
	default:
		return 0, false, err
	}
}

// Size reports the current queue depth.
func (r *Runtime) Size() int { return r.queue.Size() }

// CloseIntake stops accepting new items while letting the backlog
// drain. Idempotent.
func (r *Runtime) CloseIntake() {
	r.queue.CloseIntake()
	r.observeQueue()
	r.logger.Info("intake closed", log.Int("remaining", r.queue.Size()))
}

// Stats describes the run for the stats endpoint.
type Stats struct {
	RunID    string      `json:"run_id"`
	UptimeMs int64       `json:"uptime_ms"`
	Queue    queue.Stats `json:"queue"`
}

// Stats snapshots the run counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		RunID:    r.runID.String(),
		UptimeMs: time.Since(r.started).Milliseconds(),
		Queue:    r.queue.Stats(),
	}
}

func (r *Runtime) observeQueue() {
	st := r.queue.Stats()
	r.metrics.ObserveQueue(st.Size, st.HighWater)
}
