package client

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chute-dev/chute/internal/broker"
	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/internal/queue"
	httpserver "github.com/chute-dev/chute/internal/server/http"
	logpkg "github.com/chute-dev/chute/pkg/log"
)

// startBroker runs a real broker runtime behind httptest and returns a
// handle dialed at it.
func startBroker(t *testing.T, mutate func(*config.Config)) (*Handle, *broker.Runtime) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := broker.Open(broker.Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	logger, _ := logpkg.ApplyConfig(logpkg.Config{Level: "error", Format: "text"})
	srv := httptest.NewServer(httpserver.New(rt, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = rt.Close()
	})
	return New(Options{Endpoint: srv.URL, WaitMs: 200}), rt
}

func TestPutGetRoundTrip(t *testing.T) {
	h, _ := startBroker(t, nil)
	ctx := context.Background()

	for i := int64(0); i < 10; i++ {
		size, err := h.Put(ctx, i)
		if err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		if size != int(i)+1 {
			t.Fatalf("put %d reported size %d, want %d", i, size, i+1)
		}
	}
	for i := int64(0); i < 10; i++ {
		res, err := h.Get(ctx)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if res.Item != i {
			t.Fatalf("get returned %d, want %d", res.Item, i)
		}
		if res.Size != 9-int(i) {
			t.Fatalf("get %d reported size %d, want %d", i, res.Size, 9-int(i))
		}
	}
}

func TestGetRepollsUntilItemArrives(t *testing.T) {
	h, _ := startBroker(t, nil)

	got := make(chan int64, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := h.Get(context.Background())
		if err != nil {
			errCh <- err
			return
		}
		got <- res.Item
	}()

	// Longer than one 200ms window, so at least one empty poll happens.
	time.Sleep(500 * time.Millisecond)
	if _, err := h.Put(context.Background(), 42); err != nil {
		t.Fatalf("put: %v", err)
	}

	select {
	case item := <-got:
		if item != 42 {
			t.Fatalf("get returned %d, want 42", item)
		}
	case err := <-errCh:
		t.Fatalf("get: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for blocking get")
	}
}

func TestGetWaitSingleWindow(t *testing.T) {
	h, _ := startBroker(t, nil)

	_, ok, err := h.GetWait(context.Background(), 100)
	if err != nil {
		t.Fatalf("getwait: %v", err)
	}
	if ok {
		t.Fatalf("expected empty window")
	}
}

func TestGetHonorsContextCancel(t *testing.T) {
	h, _ := startBroker(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := h.Get(ctx)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("get after cancel = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for cancelled get to return")
	}
}

func TestClosedQueueMapping(t *testing.T) {
	h, _ := startBroker(t, nil)
	ctx := context.Background()

	if _, err := h.Put(ctx, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := h.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := h.Put(ctx, 1); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("put after close = %v, want ErrClosed", err)
	}

	res, err := h.Get(ctx)
	if err != nil || res.Item != 0 {
		t.Fatalf("drain get = (%d, %v), want item 0", res.Item, err)
	}
	if _, err := h.Get(ctx); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("get after drain = %v, want ErrClosed", err)
	}
}

func TestFullQueueMapping(t *testing.T) {
	h, _ := startBroker(t, func(c *config.Config) {
		c.Broker.Capacity = 1
		c.Broker.FullPolicy = "reject"
	})
	ctx := context.Background()

	if _, err := h.Put(ctx, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := h.Put(ctx, 1); !errors.Is(err, queue.ErrFull) {
		t.Fatalf("put at capacity = %v, want ErrFull", err)
	}
}

func TestSizeStatsHealth(t *testing.T) {
	h, rt := startBroker(t, nil)
	ctx := context.Background()

	_, _ = h.Put(ctx, 0)
	_, _ = h.Put(ctx, 1)

	size, err := h.Size(ctx)
	if err != nil || size != 2 {
		t.Fatalf("size = (%d, %v), want 2", size, err)
	}

	st, err := h.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.RunID != rt.RunID().String() {
		t.Fatalf("stats run id = %q, want %q", st.RunID, rt.RunID().String())
	}
	if st.Queue.Enqueued != 2 {
		t.Fatalf("stats enqueued = %d, want 2", st.Queue.Enqueued)
	}

	runID, err := h.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if runID != rt.RunID().String() {
		t.Fatalf("health run id = %q, want %q", runID, rt.RunID().String())
	}
}

func TestUnreachableBroker(t *testing.T) {
	// Grab a port that nothing listens on anymore.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	endpoint := "http://" + l.Addr().String()
	_ = l.Close()

	h := New(Options{Endpoint: endpoint, WaitMs: 100})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := h.Put(ctx, 0); !errors.Is(err, ErrBrokerUnreachable) {
		t.Fatalf("put to dead broker = %v, want ErrBrokerUnreachable", err)
	}
	if _, err := h.Get(ctx); !errors.Is(err, ErrBrokerUnreachable) {
		t.Fatalf("get from dead broker = %v, want ErrBrokerUnreachable", err)
	}
	if _, err := h.Health(ctx); !errors.Is(err, ErrBrokerUnreachable) {
		t.Fatalf("health of dead broker = %v, want ErrBrokerUnreachable", err)
	}
}
