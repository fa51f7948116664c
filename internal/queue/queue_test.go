package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPutGetFIFO(t *testing.T) {
	q := New(Options{})
	ctx := context.Background()

	for i := int64(0); i < 100; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if got := q.Size(); got != 100 {
		t.Fatalf("size = %d, want 100", got)
	}
	for i := int64(0); i < 100; i++ {
		item, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if item != i {
			t.Fatalf("get returned %d, want %d", item, i)
		}
	}
	if got := q.Size(); got != 0 {
		t.Fatalf("size after drain = %d, want 0", got)
	}
}

func TestGetBlocksUntilPut(t *testing.T) {
	q := New(Options{})

	got := make(chan int64, 1)
	go func() {
		item, err := q.Get(context.Background())
		if err != nil {
			t.Errorf("get: %v", err)
			return
		}
		got <- item
	}()

	select {
	case item := <-got:
		t.Fatalf("get returned %d before any put", item)
	case <-time.After(50 * time.Millisecond):
	}

	if err := q.Put(context.Background(), 42); err != nil {
		t.Fatalf("put: %v", err)
	}

	select {
	case item := <-got:
		if item != 42 {
			t.Fatalf("get returned %d, want 42", item)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for blocked get to wake")
	}
}

func TestGetHonorsContext(t *testing.T) {
	q := New(Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Get(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("get on empty queue = %v, want deadline exceeded", err)
	}
}

func TestCloseIntakeDrainsBacklog(t *testing.T) {
	q := New(Options{})
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	q.CloseIntake()

	if err := q.Put(ctx, 99); !errors.Is(err, ErrClosed) {
		t.Fatalf("put after close = %v, want ErrClosed", err)
	}
	for i := int64(0); i < 3; i++ {
		item, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("drain get: %v", err)
		}
		if item != i {
			t.Fatalf("drain get returned %d, want %d", item, i)
		}
	}
	if _, err := q.Get(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("get after drain = %v, want ErrClosed", err)
	}
}

func TestCloseIntakeWakesBlockedGet(t *testing.T) {
	q := New(Options{})

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Get(context.Background())
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	q.CloseIntake()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("woken get = %v, want ErrClosed", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for close to wake blocked get")
	}
}

func TestCapacityRejectPolicy(t *testing.T) {
	q := New(Options{Capacity: 2, Policy: PolicyReject})
	ctx := context.Background()

	if err := q.Put(ctx, 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := q.Put(ctx, 2); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := q.Put(ctx, 3); !errors.Is(err, ErrFull) {
		t.Fatalf("put at capacity = %v, want ErrFull", err)
	}

	if _, err := q.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := q.Put(ctx, 3); err != nil {
		t.Fatalf("put after space freed: %v", err)
	}
}

func TestCapacityBlockPolicy(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: PolicyBlock})
	ctx := context.Background()

	if err := q.Put(ctx, 1); err != nil {
		t.Fatalf("put: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- q.Put(context.Background(), 2)
	}()

	select {
	case err := <-done:
		t.Fatalf("put on full queue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := q.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unblocked put: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for blocked put to wake")
	}

	item, err := q.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item != 2 {
		t.Fatalf("get returned %d, want 2", item)
	}
}

func TestCapacityBlockHonorsContext(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: PolicyBlock})
	if err := q.Put(context.Background(), 1); err != nil {
		t.Fatalf("put: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Put(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("blocked put = %v, want deadline exceeded", err)
	}
}

func TestCloseIntakeWakesBlockedPut(t *testing.T) {
	q := New(Options{Capacity: 1, Policy: PolicyBlock})
	if err := q.Put(context.Background(), 1); err != nil {
		t.Fatalf("put: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Put(context.Background(), 2)
	}()

	time.Sleep(50 * time.Millisecond)
	q.CloseIntake()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("woken put = %v, want ErrClosed", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for close to wake blocked put")
	}
}

func TestStatsCounters(t *testing.T) {
	q := New(Options{Capacity: 10, Policy: PolicyReject})
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := q.Get(ctx); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	st := q.Stats()
	if st.Size != 3 || st.Enqueued != 5 || st.Dequeued != 2 {
		t.Fatalf("stats = %+v", st)
	}
	if st.HighWater != 5 {
		t.Fatalf("high water = %d, want 5", st.HighWater)
	}
	if st.Capacity != 10 || st.Closed {
		t.Fatalf("stats = %+v", st)
	}

	q.CloseIntake()
	if st := q.Stats(); !st.Closed {
		t.Fatalf("stats after close = %+v", st)
	}
}

func TestCompactionReclaimsConsumedPrefix(t *testing.T) {
	q := New(Options{})
	ctx := context.Background()

	for i := int64(0); i < 200; i++ {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	for i := 0; i < 150; i++ {
		if _, err := q.Get(ctx); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	q.mu.Lock()
	head, buflen := q.head, len(q.buf)
	q.mu.Unlock()
	if head >= buflen && buflen > 0 {
		t.Fatalf("head %d beyond buffer %d", head, buflen)
	}
	if head > 64 && head*2 >= buflen {
		t.Fatalf("dead prefix not compacted: head=%d len=%d", head, buflen)
	}

	for i := int64(150); i < 200; i++ {
		item, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if item != i {
			t.Fatalf("order broken after compaction: got %d, want %d", item, i)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyBlock, false},
		{"block", PolicyBlock, false},
		{"reject", PolicyReject, false},
		{"drop", PolicyBlock, true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
