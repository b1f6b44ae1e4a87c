package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "issue_locator"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// location picker and the reverse geocoding service.
type Metrics struct {
	// Location picker metrics.
	PickerClicks         prometheus.Counter
	PickerLookups        *prometheus.CounterVec // labels: outcome={resolved,failed,stale,discarded}
	PickerLookupsPending prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: tier={memory,redis}, result={hit,miss,error}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider
	RateLimitWait      prometheus.Histogram
	SharedLookups      prometheus.Counter

	// Lookup event publishing.
	LookupsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PickerClicks,
		m.PickerLookups,
		m.PickerLookupsPending,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.RateLimitWait,
		m.SharedLookups,
		m.LookupsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PickerClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picker_clicks_total",
			Help:      "Map clicks accepted by the location picker.",
		}),
		PickerLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "picker_lookups_total",
			Help:      "Debounced reverse geocoding lookups by outcome.",
		}, []string{"outcome"}),
		PickerLookupsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "picker_lookups_in_flight",
			Help:      "Reverse geocoding lookups currently awaiting a response.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Reverse geocoding request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_rate_limit_wait_seconds",
			Help:      "Time spent waiting for the upstream rate limiter.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		SharedLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_shared_lookups_total",
			Help:      "Lookups answered by joining an identical in-flight request.",
		}),
		LookupsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_events_published_total",
			Help:      "Lookup events written to the event topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_event_publish_errors_total",
			Help:      "Lookup events that failed to publish.",
		}),
	}
}
