package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var latencyBucketsMS = []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

type Registry struct {
	reg *prometheus.Registry

	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	GuardDecisions *prometheus.CounterVec

	MeetingActions   *prometheus.CounterVec
	MeetingCreations *prometheus.CounterVec

	VideoOperations     *prometheus.CounterVec
	VideoLatency        *prometheus.HistogramVec
	VideoRetries        *prometheus.CounterVec
	VideoRetryExhausted *prometheus.CounterVec

	DashboardSessions prometheus.Gauge
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_job_runs_total",
			Help: "Total background job runs by job and status.",
		}, []string{"job", "status"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yoom_job_duration_ms",
			Help:    "Background job duration in milliseconds by job.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"job"}),
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_route_guard_decisions_total",
			Help: "Route guard decisions by outcome (skipped, public, allowed, redirected).",
		}, []string{"decision"}),
		MeetingActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_meeting_actions_total",
			Help: "Meeting dashboard actions by action and outcome.",
		}, []string{"action", "outcome"}),
		MeetingCreations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_meeting_creations_total",
			Help: "Meeting creation attempts by meeting type and status.",
		}, []string{"type", "status"}),
		VideoOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_video_operations_total",
			Help: "Video SDK operations by provider, operation and status.",
		}, []string{"provider", "op", "status"}),
		VideoLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yoom_video_operation_latency_ms",
			Help:    "Video SDK operation latency in milliseconds by provider, operation and status.",
			Buckets: latencyBucketsMS,
		}, []string{"provider", "op", "status"}),
		VideoRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_video_retries_total",
			Help: "Video SDK retries by operation and reason.",
		}, []string{"op", "reason"}),
		VideoRetryExhausted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yoom_video_retry_exhausted_total",
			Help: "Video SDK operations that exhausted retry attempts by operation.",
		}, []string{"op"}),
		DashboardSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "yoom_dashboard_sessions",
			Help: "Dashboard sessions currently held in memory.",
		}),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

var (
	defaultMu       sync.Mutex
	defaultRegistry = NewRegistry()
)

func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRegistry
}

func ResetDefaultForTest() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = NewRegistry()
}
