package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chute-dev/chute/internal/config"
	"github.com/chute-dev/chute/internal/queue"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRuntime(t *testing.T, mutate func(*config.Config)) *Runtime {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := Open(Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpenRejectsBadPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Broker.FullPolicy = "explode"
	if _, err := Open(Options{Config: cfg}); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	r := newTestRuntime(t, nil)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		if err := r.Put(ctx, i); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if got := r.Size(); got != 5 {
		t.Fatalf("size = %d, want 5", got)
	}
	for i := int64(0); i < 5; i++ {
		item, ok, err := r.Get(ctx, time.Second)
		if err != nil || !ok {
			t.Fatalf("get %d: ok=%v err=%v", i, ok, err)
		}
		if item != i {
			t.Fatalf("get returned %d, want %d", item, i)
		}
	}
}

func TestGetEmptyWindowReturnsNoItem(t *testing.T) {
	r := newTestRuntime(t, nil)

	start := time.Now()
	_, ok, err := r.Get(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected empty window")
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("window returned too early: %v", elapsed)
	}
}

func TestGetWokenByPut(t *testing.T) {
	r := newTestRuntime(t, nil)

	type result struct {
		item int64
		ok   bool
		err  error
	}
	got := make(chan result, 1)
	go func() {
		item, ok, err := r.Get(context.Background(), 2*time.Second)
		got <- result{item, ok, err}
	}()

	time.Sleep(50 * time.Millisecond)
	if err := r.Put(context.Background(), 7); err != nil {
		t.Fatalf("put: %v", err)
	}

	select {
	case res := <-got:
		if res.err != nil || !res.ok || res.item != 7 {
			t.Fatalf("get = %+v, want item 7", res)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for blocked get to wake")
	}
}

func TestCloseIntakeSemantics(t *testing.T) {
	r := newTestRuntime(t, nil)
	ctx := context.Background()

	if err := r.Put(ctx, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	r.CloseIntake()

	if err := r.Put(ctx, 1); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("put after close = %v, want ErrClosed", err)
	}

	item, ok, err := r.Get(ctx, time.Second)
	if err != nil || !ok || item != 0 {
		t.Fatalf("drain get = (%d, %v, %v), want item 0", item, ok, err)
	}

	if _, _, err := r.Get(ctx, time.Second); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("get after drain = %v, want ErrClosed", err)
	}
}

func TestCapacityRejectSurfacesErrFull(t *testing.T) {
	r := newTestRuntime(t, func(c *config.Config) {
		c.Broker.Capacity = 1
		c.Broker.FullPolicy = "reject"
	})
	ctx := context.Background()

	if err := r.Put(ctx, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := r.Put(ctx, 1); !errors.Is(err, queue.ErrFull) {
		t.Fatalf("put at capacity = %v, want ErrFull", err)
	}
}

func TestStatsAndMetrics(t *testing.T) {
	r := newTestRuntime(t, nil)
	ctx := context.Background()

	_ = r.Put(ctx, 0)
	_ = r.Put(ctx, 1)
	if _, _, err := r.Get(ctx, time.Second); err != nil {
		t.Fatalf("get: %v", err)
	}

	st := r.Stats()
	if st.RunID == "" {
		t.Fatalf("stats missing run id")
	}
	if st.Queue.Enqueued != 2 || st.Queue.Dequeued != 1 || st.Queue.Size != 1 {
		t.Fatalf("stats queue = %+v", st.Queue)
	}

	if got := testutil.ToFloat64(r.Metrics().PutsTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("puts ok metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.Metrics().GetsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("gets ok metric = %v, want 1", got)
	}
}

func TestCheckHealth(t *testing.T) {
	r := newTestRuntime(t, nil)
	if err := r.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
