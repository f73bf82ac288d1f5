package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framelens_operations_total",
		Help: "Total number of analysis operations, by operation and status",
	}, []string{"operation", "status"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framelens_operation_duration_seconds",
		Help:    "Duration of analysis operations",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framelens_cache_requests_total",
		Help: "Cache lookups by kind and outcome (hit, miss, shared)",
	}, []string{"kind", "outcome"})

	FramesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framelens_frames_decoded_total",
		Help: "Total number of video frames decoded across all operations",
	})

	InflightComputations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framelens_inflight_computations",
		Help: "Number of cache computations currently in flight",
	})
)
