package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eco"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	invoicesUploadedTotal     *prometheus.CounterVec
	analysisTotal             *prometheus.CounterVec
	alternativesRequestsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	invoicesUploadedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invoices",
			Name:      "uploaded_total",
			Help:      "Total accepted invoice uploads by extractor kind.",
		},
		[]string{"service", "kind"},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "analysis_total",
			Help:      "Total synchronous text analyses by processing status.",
		},
		[]string{"service", "status"},
	)
	alternativesRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "alternatives_requests_total",
			Help:      "Total material alternative lookups by material.",
		},
		[]string{"service", "material"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		invoicesUploadedTotal,
		analysisTotal,
		alternativesRequestsTotal,
	)

	return &HTTPServerMetrics{
		registry:                  registry,
		requestTotal:              requestTotal,
		requestDuration:           requestDuration,
		requestInFlight:           requestInFlight,
		invoicesUploadedTotal:     invoicesUploadedTotal,
		analysisTotal:             analysisTotal,
		alternativesRequestsTotal: alternativesRequestsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses ids and material names so label cardinality stays bounded.
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "invoices" && parts[2] != "statistics":
		return "/v1/invoices/{id}"
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "invoices" && parts[3] == "reprocess":
		return "/v1/invoices/{id}/reprocess"
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "materials" && parts[3] == "alternatives":
		return "/v1/materials/{material}/alternatives"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.invoicesUploadedTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordAnalysis(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.analysisTotal.WithLabelValues(service, status).Inc()
}

// RecordAlternativesRequest only labels by known materials; anything else is counted as "other".
func (m *HTTPServerMetrics) RecordAlternativesRequest(service, material string, known bool) {
	if !known {
		material = "other"
	}
	m.alternativesRequestsTotal.WithLabelValues(service, material).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
