package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal       *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	processInFlight    prometheus.Gauge
	queueLag           *prometheus.HistogramVec
	materialClassified *prometheus.CounterVec
	carbonTotal        *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "invoice_process_total",
			Help:      "Total processed invoices by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "invoice_process_duration_seconds",
			Help:      "Invoice processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "invoice_process_in_flight",
			Help:      "Number of in-flight invoice processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between publishing an invoice event and its delivery.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	materialClassified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "material_classified_total",
			Help:      "Total classified line items by material.",
		},
		[]string{"service", "material"},
	)
	carbonTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "impact",
			Name:      "carbon_kg_total",
			Help:      "Cumulative carbon footprint of processed invoices in kg CO2.",
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, materialClassified, carbonTotal)

	return &WorkerMetrics{
		registry:           registry,
		processTotal:       processTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		queueLag:           queueLag,
		materialClassified: materialClassified,
		carbonTotal:        carbonTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartInvoice() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishInvoice(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

// ObserveItems counts line items per material and adds the invoice's carbon total.
func (m *WorkerMetrics) ObserveItems(service string, materials []string, carbonKg float64) {
	for _, material := range materials {
		m.materialClassified.WithLabelValues(service, material).Inc()
	}
	if carbonKg > 0 {
		m.carbonTotal.WithLabelValues(service).Add(carbonKg)
	}
}
