package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallgraph_imports_total",
			Help: "DXF imports by outcome",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallgraph_stage_duration_seconds",
			Help:    "Time spent in each normalization stage",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"stage"},
	)

	SegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallgraph_segments_total",
			Help: "Segments touched by normalization, by effect",
		},
		[]string{"effect"},
	)

	JunctionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallgraph_junctions_total",
			Help: "Classified junctions by type",
		},
		[]string{"type"},
	)

	CorrectionsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallgraph_corrections_applied_total",
			Help: "Walls flipped by a stored side correction",
		},
	)

	HTTPRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallgraph_http_request_duration_seconds",
			Help:    "HTTP requests by service, route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route", "status"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallgraph_import_sessions_active",
			Help: "Parsed imports held for re-normalization",
		},
	)
)

// ObserveStage records the time elapsed since start for stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func AddSegments(effect string, n int) {
	if n > 0 {
		SegmentsTotal.WithLabelValues(effect).Add(float64(n))
	}
}

func AddJunctions(kind string, n int) {
	if n > 0 {
		JunctionsTotal.WithLabelValues(kind).Add(float64(n))
	}
}
