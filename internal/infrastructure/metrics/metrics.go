package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
	LedgerAmount     *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Idempotency metrics
	IdempotencyReplays *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_ledger_operations_total",
				Help: "Ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebank_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations, lock waits included",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		LedgerAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_ledger_amount_total",
				Help: "Sum of committed amounts; float approximation, not for accounting",
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebank_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),

		// Idempotency metrics
		IdempotencyReplays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_idempotency_results_total",
				Help: "Idempotency key outcomes (stored, replayed, in_flight, released)",
			},
			[]string{"result"},
		),
	}
}

// RecordOperation implements usecase.OperationRecorder.
func (m *Metrics) RecordOperation(operation, outcome string, amount decimal.Decimal, elapsed time.Duration) {
	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	if outcome == "success" {
		m.LedgerAmount.WithLabelValues(operation).Add(amount.InexactFloat64())
	}
}
