package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/metrics"
)

type Store interface {
	SweepIdle(context.Context) error
}

const SessionSweepInterval = time.Minute

type Runner struct {
	store Store
	log   zerolog.Logger
	wg    sync.WaitGroup
}

func NewRunner(store Store, log zerolog.Logger) *Runner {
	return &Runner{store: store, log: log.With().Str("component", "jobs").Logger()}
}

// Start launches the background jobs. They stop when ctx is cancelled; Wait
// blocks until they have.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runEvery(ctx, "dashboard_session_sweep", SessionSweepInterval, r.store.SweepIdle)
	}()
}

func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	r.runOnce(ctx, name, fn)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, name, fn)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, name string, fn func(context.Context) error) {
	start := time.Now()
	err := fn(ctx)
	durMs := float64(time.Since(start).Milliseconds())
	metrics.Default().JobDuration.WithLabelValues(name).Observe(durMs)
	if err != nil {
		r.log.Error().Err(err).Str("job", name).Float64("duration_ms", durMs).Msg("job run failed")
		metrics.Default().JobRuns.WithLabelValues(name, "error").Inc()
		return
	}
	r.log.Debug().Str("job", name).Float64("duration_ms", durMs).Msg("job run")
	metrics.Default().JobRuns.WithLabelValues(name, "ok").Inc()
}
