package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reportkit-dev/reportkit/pkg/report"
)

// MetricsConfig configures the Prometheus provider middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reportkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for fetch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus provider middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reportkit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for report fetches.
type metrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	rowsReturned  prometheus.Histogram
}

// Fetch status label values.
const (
	statusOK        = "ok"
	statusError     = "error"
	statusMalformed = "malformed"
)

var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetches_total",
			Help:        "Total number of report fetches by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetch_duration_seconds",
			Help:        "Report fetch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		rowsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rows_returned",
			Help:        "Rows returned per successful fetch",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 5, 10, 20, 50},
		}),
	}
}

// Prometheus creates provider middleware that records fetch counts,
// durations and returned row counts.
//
// Metrics are registered once per process; subsequent calls reuse the
// first registration regardless of options.
func Prometheus(opts ...MetricsOption) func(report.Provider) report.Provider {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(config)
	})
	m := globalMetrics

	return func(next report.Provider) report.Provider {
		return report.ProviderFunc(func(ctx context.Context, p report.Params) (*report.Result, error) {
			start := time.Now()
			res, err := next.GetReport(ctx, p)
			m.fetchDuration.Observe(time.Since(start).Seconds())

			switch {
			case errors.Is(err, report.ErrMalformed) || (err == nil && res == nil):
				m.fetchesTotal.WithLabelValues(statusMalformed).Inc()
			case err != nil:
				m.fetchesTotal.WithLabelValues(statusError).Inc()
			default:
				m.fetchesTotal.WithLabelValues(statusOK).Inc()
				m.rowsReturned.Observe(float64(len(res.Rows)))
			}
			return res, err
		})
	}
}
