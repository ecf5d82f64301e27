package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/metrics"
)

type mockStore struct {
	sweepFn func(context.Context) error
	calls   atomic.Int32
}

func (m *mockStore) SweepIdle(ctx context.Context) error {
	m.calls.Add(1)
	if m.sweepFn != nil {
		return m.sweepFn(ctx)
	}
	return nil
}

func TestRunOnceRecordsStatus(t *testing.T) {
	metrics.ResetDefaultForTest()
	r := NewRunner(&mockStore{}, zerolog.Nop())

	r.runOnce(context.Background(), "dashboard_session_sweep", func(context.Context) error { return nil })
	r.runOnce(context.Background(), "dashboard_session_sweep", func(context.Context) error { return errors.New("boom") })

	if got := testutil.ToFloat64(metrics.Default().JobRuns.WithLabelValues("dashboard_session_sweep", "ok")); got != 1 {
		t.Fatalf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Default().JobRuns.WithLabelValues("dashboard_session_sweep", "error")); got != 1 {
		t.Fatalf("expected 1 error run, got %v", got)
	}
}

func TestStartSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	metrics.ResetDefaultForTest()
	swept := make(chan struct{}, 1)
	store := &mockStore{sweepFn: func(context.Context) error {
		select {
		case swept <- struct{}{}:
		default:
		}
		return nil
	}}
	r := NewRunner(store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an initial sweep")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	if store.calls.Load() < 1 {
		t.Fatalf("expected at least one sweep, got %d", store.calls.Load())
	}
}
