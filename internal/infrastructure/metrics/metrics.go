package metrics

import (
	"bytes"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the client's Prometheus metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Remote API metrics
	APIRequests   *prometheus.CounterVec
	APIDuration   *prometheus.HistogramVec
	APIRetries    *prometheus.CounterVec
	BreakerState  *prometheus.GaugeVec
	RateLimitWait prometheus.Histogram

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Submission metrics
	Submissions *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_api_requests_total",
				Help: "Total number of remote API requests",
			},
			[]string{"service", "operation", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitledger_api_request_duration_seconds",
				Help:    "Duration of remote API requests including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		APIRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_api_retries_total",
				Help: "Total number of retried remote API attempts",
			},
			[]string{"service", "operation"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "splitledger_circuit_breaker_state",
				Help: "Circuit breaker state per service (0 closed, 1 half-open, 2 open)",
			},
			[]string{"service"},
		),
		RateLimitWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitledger_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the client-side rate limiter",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_cache_lookups_total",
				Help: "Cache lookups by result",
			},
			[]string{"result"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitledger_submissions_total",
				Help: "Expense and settlement submissions by outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

// WriteText writes every gathered metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return err
		}
	}

	_, err = w.Write(buf.Bytes())
	return err
}
