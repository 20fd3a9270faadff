package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal      *prometheus.CounterVec
	processDuration   *prometheus.HistogramVec
	processInFlight   prometheus.Gauge
	queueLag          *prometheus.HistogramVec
	chunksPerDocument *prometheus.HistogramVec
	imagesPerDocument *prometheus.HistogramVec
	imageLinksTotal   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	chunksPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "chunks_per_document",
			Help:      "Distribution of fine-grained chunks produced per document.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	imagesPerDocument := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "images_per_document",
			Help:      "Distribution of images extracted per document.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"service"},
	)
	imageLinksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docuvision",
			Subsystem: "worker",
			Name:      "image_links_total",
			Help:      "Total processed images by link outcome.",
		},
		[]string{"service", "outcome"},
	)
	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		queueLag,
		chunksPerDocument,
		imagesPerDocument,
		imageLinksTotal,
	)

	return &WorkerMetrics{
		registry:          registry,
		processTotal:      processTotal,
		processDuration:   processDuration,
		processInFlight:   processInFlight,
		queueLag:          queueLag,
		chunksPerDocument: chunksPerDocument,
		imagesPerDocument: imagesPerDocument,
		imageLinksTotal:   imageLinksTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
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

func (m *WorkerMetrics) ObserveDocumentShape(service string, chunkCount, imageCount int) {
	m.chunksPerDocument.WithLabelValues(service).Observe(float64(chunkCount))
	m.imagesPerDocument.WithLabelValues(service).Observe(float64(imageCount))
}

func (m *WorkerMetrics) RecordImageLink(service string, linked bool) {
	outcome := "unlinked"
	if linked {
		outcome = "linked"
	}
	m.imageLinksTotal.WithLabelValues(service, outcome).Inc()
}
