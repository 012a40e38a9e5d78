package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// comfort engine.
type Metrics struct {
	Requests           *prometheus.CounterVec // labels: endpoint={point,region,infer}, outcome={success,error}
	EvaluationDuration *prometheus.HistogramVec

	// Climatology source metrics.
	SourceFetches       *prometheus.CounterVec // labels: outcome={success,no_data,error}
	SourceFetchDuration prometheus.Histogram
	SourceCache         *prometheus.CounterVec // labels: result={hit,miss}
	BreakerOpen         prometheus.Gauge

	// Region sampling metrics.
	Samples     *prometheus.CounterVec // labels: outcome={success,failed}
	SampleCount prometheus.Histogram

	// Result export metrics.
	Exports *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Requests,
		m.EvaluationDuration,
		m.SourceFetches,
		m.SourceFetchDuration,
		m.SourceCache,
		m.BreakerOpen,
		m.Samples,
		m.SampleCount,
		m.Exports,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comfort",
			Name:      "requests_total",
			Help:      "Engine requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		EvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "comfort",
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end evaluation duration by mode.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comfort",
			Name:      "source_fetches_total",
			Help:      "Climatology source fetches by outcome.",
		}, []string{"outcome"}),
		SourceFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "comfort",
			Name:      "source_fetch_duration_seconds",
			Help:      "Climatology API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comfort",
			Name:      "source_cache_total",
			Help:      "Climatology cache lookups by result.",
		}, []string{"result"}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "comfort",
			Name:      "source_breaker_open",
			Help:      "1 when the climatology circuit breaker is open, 0 otherwise.",
		}),
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comfort",
			Name:      "region_samples_total",
			Help:      "Region sample evaluations by outcome.",
		}, []string{"outcome"}),
		SampleCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "comfort",
			Name:      "region_sample_count",
			Help:      "Number of generated sample points per region request.",
			Buckets:   []float64{1, 4, 9, 16, 25, 36, 49, 64, 100},
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comfort",
			Name:      "result_exports_total",
			Help:      "Scored-result exports by outcome.",
		}, []string{"outcome"}),
	}
}
