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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	batchFilesTotal  *prometheus.CounterVec
	uploadBytes      *prometheus.HistogramVec
	summaryDuration  *prometheus.HistogramVec
	summaryPages     *prometheus.HistogramVec
	summaryTextChars *prometheus.HistogramVec
	llmTokensTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "digest",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Subsystem: "upload",
			Name:      "batch_files_total",
			Help:      "Total files submitted in upload batches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Subsystem: "upload",
			Name:      "file_bytes",
			Help:      "Size distribution of accepted uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
		[]string{"service"},
	)
	summaryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Subsystem: "summary",
			Name:      "duration_seconds",
			Help:      "Synchronous summary generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	summaryPages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Subsystem: "summary",
			Name:      "document_pages",
			Help:      "Page count distribution of summarized documents.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100, 250},
		},
		[]string{"service"},
	)
	summaryTextChars := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digest",
			Subsystem: "summary",
			Name:      "text_chars",
			Help:      "Extracted text length distribution in characters.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"service"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digest",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage reported by the completion API by direction.",
		},
		[]string{"service", "direction", "model"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		batchFilesTotal,
		uploadBytes,
		summaryDuration,
		summaryPages,
		summaryTextChars,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		batchFilesTotal:  batchFilesTotal,
		uploadBytes:      uploadBytes,
		summaryDuration:  summaryDuration,
		summaryPages:     summaryPages,
		summaryTextChars: summaryTextChars,
		llmTokensTotal:   llmTokensTotal,
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
	case strings.HasPrefix(path, "/v1/batches/"):
		return "/v1/batches/{batch_id}"
	case strings.HasPrefix(path, "/v1/files/"):
		return "/v1/files/{file_id}"
	case strings.HasPrefix(path, "/files/"):
		return "/files/{key}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordBatchFile(service, outcome string, size int64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.batchFilesTotal.WithLabelValues(service, outcome).Inc()
	if outcome == "accepted" && size > 0 {
		m.uploadBytes.WithLabelValues(service).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordSummary(service string, pages, textLength int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.summaryDuration.WithLabelValues(service, status).Observe(duration.Seconds())

	if err != nil {
		return
	}
	m.summaryPages.WithLabelValues(service).Observe(float64(pages))
	m.summaryTextChars.WithLabelValues(service).Observe(float64(textLength))
}

func (m *HTTPServerMetrics) RecordTokenUsage(service, model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "out", model).Add(float64(completionTokens))
	}
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
