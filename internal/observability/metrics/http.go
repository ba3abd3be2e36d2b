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

const namespace = "docsearch"

var breakerStates = []string{"closed", "half-open", "open"}

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answerTotal         *prometheus.CounterVec
	answerNoSources     *prometheus.CounterVec
	answerSources       *prometheus.HistogramVec
	answerDuration      *prometheus.HistogramVec
	uploadTotal         *prometheus.CounterVec
	reportExportTotal   *prometheus.CounterVec
	triggerConflicts    *prometheus.CounterVec
	catalogDocuments    *prometheus.GaugeVec
	catalogMalformed    *prometheus.GaugeVec
	resilienceRetries   *prometheus.CounterVec
	resilienceBreakerOn *prometheus.GaugeVec
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
	answerTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Total successful answer requests.",
		},
		[]string{"service", "endpoint"},
	)
	answerNoSources := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "no_sources_total",
			Help:      "Total answers returned without any cited source.",
		},
		[]string{"service", "endpoint"},
	)
	answerSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "sources",
			Help:      "Distribution of cited sources per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "endpoint"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "Answer generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	uploadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "total",
			Help:      "Total document uploads by status.",
		},
		[]string{"service", "status"},
	)
	reportExportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "exports_total",
			Help:      "Total report exports by status.",
		},
		[]string{"service", "status"},
	)
	triggerConflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "trigger_conflicts_total",
			Help:      "Total rejected query/upload activations.",
		},
		[]string{"service", "endpoint"},
	)
	catalogDocuments := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "documents",
			Help:      "Number of documents in the last listed catalog.",
		},
		[]string{"service"},
	)
	catalogMalformed := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "malformed_documents",
			Help:      "Number of catalog documents whose URI could not be parsed.",
		},
		[]string{"service"},
	)
	resilienceRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)
	resilienceBreakerOn := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state by operation (1 for the current state).",
		},
		[]string{"service", "operation", "state"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answerTotal,
		answerNoSources,
		answerSources,
		answerDuration,
		uploadTotal,
		reportExportTotal,
		triggerConflicts,
		catalogDocuments,
		catalogMalformed,
		resilienceRetries,
		resilienceBreakerOn,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		answerTotal:         answerTotal,
		answerNoSources:     answerNoSources,
		answerSources:       answerSources,
		answerDuration:      answerDuration,
		uploadTotal:         uploadTotal,
		reportExportTotal:   reportExportTotal,
		triggerConflicts:    triggerConflicts,
		catalogDocuments:    catalogDocuments,
		catalogMalformed:    catalogMalformed,
		resilienceRetries:   resilienceRetries,
		resilienceBreakerOn: resilienceBreakerOn,
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

func normalizePath(path string) string {
	switch {
	case path == "/v1/catalog/export.xlsx":
		return path
	case strings.HasPrefix(path, "/v1/catalog/"):
		return "/v1/catalog/{document_id}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}"
	case strings.HasPrefix(path, "/v1/uploads/"):
		return "/v1/uploads/{upload_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAnswerObservation(service, endpoint string, sourceCount int, duration time.Duration) {
	m.answerTotal.WithLabelValues(service, endpoint).Inc()
	m.answerSources.WithLabelValues(service, endpoint).Observe(float64(sourceCount))
	m.answerDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
	if sourceCount == 0 {
		m.answerNoSources.WithLabelValues(service, endpoint).Inc()
	}
}

func (m *HTTPServerMetrics) RecordUpload(service string, err error) {
	m.uploadTotal.WithLabelValues(service, outcome(err)).Inc()
}

func (m *HTTPServerMetrics) RecordReportExport(service string, err error) {
	m.reportExportTotal.WithLabelValues(service, outcome(err)).Inc()
}

func (m *HTTPServerMetrics) RecordTriggerConflict(service, endpoint string) {
	m.triggerConflicts.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) SetCatalogSize(service string, total, malformed int) {
	m.catalogDocuments.WithLabelValues(service).Set(float64(total))
	m.catalogMalformed.WithLabelValues(service).Set(float64(malformed))
}

// ObserveRetry and ObserveBreakerState make the metrics usable as a
// resilience.Observer.
func (m *HTTPServerMetrics) ObserveRetry(operation string, _ int) {
	m.resilienceRetries.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation, state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1
		}
		m.resilienceBreakerOn.WithLabelValues(m.service, operation, s).Set(value)
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
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
