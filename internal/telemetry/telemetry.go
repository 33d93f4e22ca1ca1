package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/wonk/config"
)

// Telemetry records run and stage events: an in-memory snapshot for the
// status endpoints plus Prometheus collectors served from /metrics.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics holds aggregate pipeline metrics
type Metrics struct {
	TotalRuns      int64
	CompletedRuns  int64
	FailedRuns     int64
	StageRuns      map[string]int64
	StageFailures  map[string]int64
	SearchRequests int64
}

// RunEvent represents one end-to-end pipeline execution
type RunEvent struct {
	RunID    string
	Topic    string
	Duration time.Duration
	Success  bool
	Error    string
}

// StageEvent represents one worker invocation
type StageEvent struct {
	RunID    string
	Role     string
	Duration time.Duration
	Success  bool
	Sources  int
}

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wonk_runs_total",
		Help: "Pipeline runs by terminal status.",
	}, []string{"status"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wonk_stage_duration_seconds",
		Help:    "Stage execution time by role.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"role"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wonk_stage_failures_total",
		Help: "Stage failures by role.",
	}, []string{"role"})

	searchRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wonk_search_requests_total",
		Help: "Web search calls issued by research stages.",
	})
)

// NewTelemetry creates a telemetry instance
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: Metrics{
			StageRuns:     make(map[string]int64),
			StageFailures: make(map[string]int64),
		},
	}
}

// RecordRunEvent records a completed or failed run
func (t *Telemetry) RecordRunEvent(event RunEvent) {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.TotalRuns++
	if event.Success {
		t.metrics.CompletedRuns++
	} else {
		t.metrics.FailedRuns++
	}
	t.mu.Unlock()

	status := "completed"
	if !event.Success {
		status = "failed"
	}
	runsTotal.WithLabelValues(status).Inc()

	if t.config.PeriodicLogs {
		t.logger.Printf("run %s %s in %v", event.RunID, status, event.Duration.Round(time.Millisecond))
	}
}

// RecordStageEvent records one worker invocation
func (t *Telemetry) RecordStageEvent(event StageEvent) {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.StageRuns[event.Role]++
	if !event.Success {
		t.metrics.StageFailures[event.Role]++
	}
	t.mu.Unlock()

	stageDuration.WithLabelValues(event.Role).Observe(event.Duration.Seconds())
	if !event.Success {
		stageFailures.WithLabelValues(event.Role).Inc()
	}
}

// RecordSearch counts one web search call
func (t *Telemetry) RecordSearch() {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	t.metrics.SearchRequests++
	t.mu.Unlock()
	searchRequests.Inc()
}

// Snapshot returns a copy of the aggregate metrics
func (t *Telemetry) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := Metrics{
		TotalRuns:      t.metrics.TotalRuns,
		CompletedRuns:  t.metrics.CompletedRuns,
		FailedRuns:     t.metrics.FailedRuns,
		SearchRequests: t.metrics.SearchRequests,
		StageRuns:      make(map[string]int64, len(t.metrics.StageRuns)),
		StageFailures:  make(map[string]int64, len(t.metrics.StageFailures)),
	}
	for k, v := range t.metrics.StageRuns {
		out.StageRuns[k] = v
	}
	for k, v := range t.metrics.StageFailures {
		out.StageFailures[k] = v
	}
	return out
}
