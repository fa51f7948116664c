// Package supervisor spawns and oversees the pipeline's processes:
// one broker and the producer and consumer workers, each a child
// process running this same binary with a role subcommand.
//
// The supervisor never blocks without a bound. Its main loop is a
// select over the signal channel, the child-exit channel, and a
// repeating health-poll ticker. Signals flip the loop into shutdown;
// by default that is a drain: producer stopped first, queue intake
// closed, consumer allowed to finish the backlog, broker last.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chute-dev/chute/internal/client"
	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/pkg/log"
)

const readyPollInterval = 100 * time.Millisecond

// Options configures a Supervisor.
type Options struct {
	// Config carries the fully resolved pipeline configuration. It is
	// forwarded to every child through the environment.
	Config config.Config
	// Logger for supervisor events. Defaults to a fresh logger.
	Logger log.Logger
	// ExecPath overrides the binary used to spawn children. Defaults
	// to the running executable.
	ExecPath string
}

// Supervisor owns the pipeline's process tree.
type Supervisor struct {
	cfg    config.Config
	logger log.Logger
	handle *client.Handle

	execPath string
	baseArgs []string
	extraEnv []string

	exits chan exitEvent
	sigCh chan os.Signal

	broker   *child
	consumer *child
	producer *child
	runID    string

	termGrace  time.Duration
	drainGrace time.Duration
}

// New constructs a Supervisor.
func New(opts Options) (*Supervisor, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(log.WithLevel(log.InfoLevel))
	}
	execPath := opts.ExecPath
	if execPath == "" {
		p, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		execPath = p
	}
	return &Supervisor{
		cfg:      opts.Config,
		logger:   opts.Logger.With(log.Component("supervisor")),
		execPath: execPath,
		handle: client.New(client.Options{
			Endpoint: opts.Config.BrokerEndpoint(),
			Logger:   opts.Logger,
		}),
		exits:      make(chan exitEvent, 8),
		termGrace:  3 * time.Second,
		drainGrace: 10 * time.Second,
	}, nil
}

// Run starts the pipeline and blocks until it ends: a signal arrives,
// ctx is cancelled, a child finishes cleanly, or a child fails. The
// first three return nil; a failed child returns *ChildExitError so
// the caller can exit with the same status.
func (s *Supervisor) Run(ctx context.Context) error {
	var err error
	if s.broker, err = s.startChild("broker"); err != nil {
		return err
	}
	if err := s.waitBrokerReady(ctx); err != nil {
		s.stop(s.broker, s.termGrace)
		return err
	}
	if s.consumer, err = s.startChild("consume"); err != nil {
		s.terminate()
		return err
	}
	if s.producer, err = s.startChild("produce"); err != nil {
		s.terminate()
		return err
	}

	sig := s.sigCh
	if sig == nil {
		sig = make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
		defer signal.Stop(sig)
	}
	ticker := time.NewTicker(time.Duration(s.cfg.Supervisor.PollMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case sg := <-sig:
			s.logger.Info("signal received", log.Str("signal", sg.String()))
			s.shutdown()
			return nil
		case <-ctx.Done():
			s.logger.Info("context cancelled, shutting down")
			s.shutdown()
			return nil
		case ev := <-s.exits:
			if ev.code == 0 {
				s.logger.Info("child finished", log.Str("child", ev.name))
				s.shutdown()
				return nil
			}
			s.logger.Error("child failed",
				log.Str("child", ev.name),
				log.Int("code", ev.code),
				log.Err(ev.err),
			)
			s.terminate()
			return &ChildExitError{Name: ev.name, Code: ev.code}
		case <-ticker.C:
			s.pollHealth(ctx)
		}
	}
}

// waitBrokerReady polls the broker's health endpoint until it answers,
// bounded by the configured start timeout. A broker that dies before
// answering fails the wait immediately.
func (s *Supervisor) waitBrokerReady(ctx context.Context) error {
	timeout := time.Duration(s.cfg.Supervisor.StartTimeoutMs) * time.Millisecond
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		hctx, hcancel := context.WithTimeout(wctx, time.Second)
		runID, err := s.handle.Health(hctx)
		hcancel()
		if err == nil {
			s.runID = runID
			s.logger.Info("broker ready",
				log.Str("run_id", runID),
				log.Str("endpoint", s.cfg.BrokerEndpoint()),
			)
			return nil
		}
		lastErr = err

		select {
		case <-wctx.Done():
			return fmt.Errorf("broker not ready within %v: %w", timeout, lastErr)
		case ev := <-s.exits:
			if ev.code == 0 {
				return fmt.Errorf("broker exited before becoming ready")
			}
			return &ChildExitError{Name: ev.name, Code: ev.code}
		case <-time.After(readyPollInterval):
		}
	}
}

// pollHealth is the ticker body: one bounded stats call, logged at
// debug. A run ID change means the broker restarted and the queue
// state was lost.
func (s *Supervisor) pollHealth(ctx context.Context) {
	hctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	st, err := s.handle.Stats(hctx)
	if err != nil {
		s.logger.Warn("broker health poll failed", log.Err(err))
		return
	}
	if s.runID != "" && st.RunID != s.runID {
		s.logger.Warn("broker restarted, queue state lost",
			log.Str("old_run_id", s.runID),
			log.Str("run_id", st.RunID),
		)
	}
	s.runID = st.RunID
	s.logger.Debug("broker healthy",
		log.Str("run_id", st.RunID),
		log.Int("queue_size", st.Queue.Size),
	)
}

// shutdown winds the pipeline down. With drain enabled the producer
// stops first, the queue intake is closed, and the consumer gets to
// finish the backlog before the broker goes away. Otherwise all
// children are stopped immediately.
func (s *Supervisor) shutdown() {
	if !s.cfg.Supervisor.Drain {
		s.terminate()
		return
	}
	s.logger.Info("draining pipeline")
	if code := s.stop(s.producer, s.termGrace); code != 0 {
		s.logger.Warn("producer exit status", log.Int("code", code))
	}

	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err := s.handle.Close(cctx)
	cancel()
	if err != nil {
		s.logger.Warn("close intake", log.Err(err))
	}

	if code, ok := s.consumer.await(s.drainGrace); !ok {
		s.logger.Warn("consumer still draining after grace, terminating")
		s.stop(s.consumer, s.termGrace)
	} else if code != 0 {
		s.logger.Warn("consumer exit status", log.Int("code", code))
	}

	s.stop(s.broker, s.termGrace)
	s.logger.Info("pipeline stopped")
}

// terminate stops all children without draining, workers before the
// broker.
func (s *Supervisor) terminate() {
	s.logger.Info("terminating children")
	s.stop(s.producer, s.termGrace)
	s.stop(s.consumer, s.termGrace)
	s.stop(s.broker, s.termGrace)
}

// childEnv renders the resolved configuration as CHUTE_* variables so
// every child reconstructs the exact same settings regardless of the
// files or flags the supervisor itself was started with.
func (s *Supervisor) childEnv() []string {
	c := s.cfg
	return append(os.Environ(),
		"CHUTE_ENDPOINT="+c.BrokerEndpoint(),
		"CHUTE_BROKER_LISTEN_ADDR="+c.Broker.ListenAddr,
		"CHUTE_BROKER_CAPACITY="+strconv.Itoa(c.Broker.Capacity),
		"CHUTE_BROKER_FULL_POLICY="+c.Broker.FullPolicy,
		"CHUTE_PRODUCER_COUNT="+strconv.Itoa(c.Producer.Count),
		"CHUTE_PRODUCER_INTERVAL_MS="+strconv.FormatInt(c.Producer.IntervalMs, 10),
		"CHUTE_CONSUMER_WAIT_MS="+strconv.FormatInt(c.Consumer.WaitMs, 10),
		"CHUTE_SUPERVISOR_POLL_MS="+strconv.FormatInt(c.Supervisor.PollMs, 10),
		"CHUTE_SUPERVISOR_START_TIMEOUT_MS="+strconv.FormatInt(c.Supervisor.StartTimeoutMs, 10),
		"CHUTE_SUPERVISOR_DRAIN="+strconv.FormatBool(c.Supervisor.Drain),
		"CHUTE_LOG_LEVEL="+c.Log.Level,
		"CHUTE_LOG_FORMAT="+c.Log.Format,
	)
}
