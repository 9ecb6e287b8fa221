// Package metrics provides Prometheus metrics for the scanner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScannerMetrics collects and exposes scan-related Prometheus metrics.
type ScannerMetrics struct {
	registry *prometheus.Registry

	ScansTotal        *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	MarketsScanned    prometheus.Counter
	BookFetchFailures prometheus.Counter
	SignalsEmitted    *prometheus.CounterVec
	MispricingScore   prometheus.Histogram
}

// New creates scanner metrics registered on a fresh registry.
func New() *ScannerMetrics {
	m := &ScannerMetrics{
		registry: prometheus.NewRegistry(),

		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finny",
			Name:      "scans_total",
			Help:      "Number of mispricing scans by outcome.",
		}, []string{"status"}),

		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "finny",
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full scan.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		MarketsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finny",
			Name:      "markets_scanned_total",
			Help:      "Markets considered across all scans.",
		}),

		BookFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finny",
			Name:      "book_fetch_failures_total",
			Help:      "Order-book fetches that failed and produced degraded signals.",
		}),

		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finny",
			Name:      "signals_emitted_total",
			Help:      "Signals emitted by confidence tier.",
		}, []string{"confidence"}),

		MispricingScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "finny",
			Name:      "mispricing_score",
			Help:      "Distribution of emitted mispricing scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.MarketsScanned,
		m.BookFetchFailures,
		m.SignalsEmitted,
		m.MispricingScore,
	)

	return m
}

// Registry returns the underlying registry for serving /metrics.
func (m *ScannerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScan records a completed scan.
func (m *ScannerMetrics) ObserveScan(duration time.Duration, marketsScanned, fetchFailures int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(duration.Seconds())
	m.MarketsScanned.Add(float64(marketsScanned))
	m.BookFetchFailures.Add(float64(fetchFailures))
}

// ObserveSignal records a single emitted signal.
func (m *ScannerMetrics) ObserveSignal(confidence string, score float64) {
	m.SignalsEmitted.WithLabelValues(confidence).Inc()
	m.MispricingScore.Observe(score)
}
