package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	uploadFiles *prometheus.CounterVec
	uploadBytes prometheus.Counter

	blindTests      *prometheus.CounterVec
	classifications *prometheus.CounterVec
}

func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gma_http_requests_total",
			Help: "HTTP requests partitioned by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gma_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gma_http_inflight_requests",
			Help: "Requests currently being served.",
		}),
		uploadFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gma_upload_files_total",
			Help: "Uploaded files partitioned by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gma_upload_bytes_total",
			Help: "Bytes durably stored for accepted uploads.",
		}),
		blindTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gma_blind_tests_total",
			Help: "Blind tests partitioned by test type and final status.",
		}, []string{"test_type", "status"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gma_classifications_total",
			Help: "Per-video classifications partitioned by risk label.",
		}, []string{"label"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.uploadFiles, m.uploadBytes,
		m.blindTests, m.classifications,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// BeginRequest marks a request in flight. The returned func must be called
// once the response status is known.
func (m *Metrics) BeginRequest() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	start := time.Now()
	m.apiInflight.Inc()
	return func(method, route string, status int) {
		m.apiInflight.Dec()
		m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.apiLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpload records one file's outcome: "stored", "rejected", "too_large"
// or "failed".
func (m *Metrics) ObserveUpload(outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadFiles.WithLabelValues(outcome).Inc()
	if outcome == "stored" && bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) ObserveBlindTest(testType, status string) {
	if m != nil {
		m.blindTests.WithLabelValues(testType, status).Inc()
	}
}

func (m *Metrics) ObserveClassification(label string) {
	if m != nil {
		m.classifications.WithLabelValues(label).Inc()
	}
}
