package prices

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider call outcomes used as the "result" label
const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"
)

// Metrics records quote provider traffic generated by the fetcher
type Metrics struct {
	providerCalls    *prometheus.CounterVec
	providerDuration prometheus.Histogram
	pointsWritten    prometheus.Counter
	windowsSkipped   prometheus.Counter
}

// NewMetrics registers the fetcher metrics on reg.
// A nil reg creates unregistered collectors (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_cache_provider_calls_total",
				Help: "Quote provider calls by result",
			},
			[]string{"result"},
		),
		providerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "price_cache_provider_call_duration_seconds",
				Help:    "Quote provider call latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		pointsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "price_cache_points_written_total",
				Help: "Price points written to the cache",
			},
		),
		windowsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "price_cache_windows_skipped_total",
				Help: "Fetch windows skipped after provider failure or empty result",
			},
		),
	}
}

func (m *Metrics) observeCall(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(result).Inc()
	m.providerDuration.Observe(d.Seconds())
}

func (m *Metrics) skipWindow() {
	if m == nil {
		return
	}
	m.windowsSkipped.Inc()
}

func (m *Metrics) addPoints(n int) {
	if m == nil {
		return
	}
	m.pointsWritten.Add(float64(n))
}
