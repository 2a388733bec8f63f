package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. A nil *Metrics records nothing,
// so components built without metrics need no special casing.
type Metrics struct {
	DataRequestsTotal    *prometheus.CounterVec
	UpstreamRequests     *prometheus.CounterVec
	UpstreamDuration     *prometheus.HistogramVec
	ProbeTotal           *prometheus.CounterVec
	ProbeDuration        prometheus.Histogram
	APIAvailable         prometheus.Gauge
	QueryCacheTotal      *prometheus.CounterVec
	QueryRetriesTotal    *prometheus.CounterVec
	QueryDedupTotal      *prometheus.CounterVec
	FallbackDatasetItems prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// New registers every collector on reg. Tests pass a fresh
// prometheus.NewRegistry(); binaries pass prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DataRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_data_requests_total",
				Help: "Data access calls by resource and the source that served them",
			},
			[]string{"resource", "source"},
		),
		UpstreamRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_upstream_requests_total",
				Help: "Attempts against the marketplace API by method and status class",
			},
			[]string{"method", "status"},
		),
		UpstreamDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buscalisto_upstream_request_duration_seconds",
				Help:    "Latency of marketplace API attempts",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"method"},
		),
		ProbeTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_probe_total",
				Help: "Availability probes by outcome",
			},
			[]string{"available"},
		),
		ProbeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "buscalisto_probe_duration_seconds",
				Help:    "Latency of availability probes",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 11),
			},
		),
		APIAvailable: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "buscalisto_api_available",
				Help: "1 when the last probe found the API available",
			},
		),
		QueryCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_query_cache_total",
				Help: "Query cache lookups by resource and result (hit, miss, stale)",
			},
			[]string{"resource", "result"},
		),
		QueryRetriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_query_retries_total",
				Help: "Query retries by resource",
			},
			[]string{"resource"},
		),
		QueryDedupTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_query_shared_total",
				Help: "Query fetches that joined an in-flight fetch",
			},
			[]string{"resource"},
		),
		FallbackDatasetItems: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "buscalisto_fallback_dataset_products",
				Help: "Products in the loaded fallback dataset",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buscalisto_http_requests_total",
				Help: "Facade requests by route and status",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "buscalisto_http_request_duration_seconds",
				Help:    "Facade request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

func (m *Metrics) RecordDataRequest(resource, source string) {
	if m == nil {
		return
	}
	m.DataRequestsTotal.WithLabelValues(resource, source).Inc()
}

// ObserveUpstream matches transport.ObserveFunc.
func (m *Metrics) ObserveUpstream(method, _ string, status int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(method, statusClass(status, err)).Inc()
	m.UpstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordProbe(available bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProbeTotal.WithLabelValues(strconv.FormatBool(available)).Inc()
	m.ProbeDuration.Observe(elapsed.Seconds())
	if available {
		m.APIAvailable.Set(1)
	} else {
		m.APIAvailable.Set(0)
	}
}

func (m *Metrics) RecordCache(resource, result string) {
	if m == nil {
		return
	}
	m.QueryCacheTotal.WithLabelValues(resource, result).Inc()
}

func (m *Metrics) RecordRetry(resource string) {
	if m == nil {
		return
	}
	m.QueryRetriesTotal.WithLabelValues(resource).Inc()
}

func (m *Metrics) RecordShared(resource string) {
	if m == nil {
		return
	}
	m.QueryDedupTotal.WithLabelValues(resource).Inc()
}

func (m *Metrics) SetDatasetSize(n int) {
	if m == nil {
		return
	}
	m.FallbackDatasetItems.Set(float64(n))
}

func (m *Metrics) ObserveHTTP(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusClass(status int, err error) string {
	switch {
	case err != nil || status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
