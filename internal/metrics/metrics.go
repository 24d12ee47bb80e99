package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "pumpswap"
	subsystem = "executor"
)

// Recorder exports swap engine activity to Prometheus.
type Recorder struct {
	swaps        *prometheus.CounterVec
	swapDuration *prometheus.HistogramVec
	quotes       *prometheus.CounterVec
	pairSearches prometheus.Counter
	pairPools    prometheus.Histogram
}

// NewRecorder registers the executor metrics on reg. A nil reg gets a private
// registry, which keeps tests isolated.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Recorder{
		swaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "swaps_total",
			Help:      "Swap invocations by side and outcome.",
		}, []string{"side", "outcome"}),
		swapDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "swap_duration_seconds",
			Help:      "Wall time from request to confirmation or abort.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"side", "outcome"}),
		quotes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "quotes_total",
			Help:      "Quote-only requests by side and outcome.",
		}, []string{"side", "outcome"}),
		pairSearches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pair_searches_total",
			Help:      "Program-account searches for a mint's pool.",
		}),
		pairPools: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pair_search_candidates",
			Help:      "Pools decoded per pair search.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
}

func (r *Recorder) ObserveSwap(side, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.swaps.WithLabelValues(side, outcome).Inc()
	r.swapDuration.WithLabelValues(side, outcome).Observe(d.Seconds())
}

func (r *Recorder) ObserveQuote(side, outcome string) {
	if r == nil {
		return
	}
	r.quotes.WithLabelValues(side, outcome).Inc()
}

func (r *Recorder) ObservePairSearch(candidates int) {
	if r == nil {
		return
	}
	r.pairSearches.Inc()
	r.pairPools.Observe(float64(candidates))
}

// NewRegistry returns a registry with process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
