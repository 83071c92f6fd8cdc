// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload forward results
const (
	UploadSuccess     = "success"
	UploadPassthrough = "passthrough"
	UploadUnreachable = "unreachable"
	UploadInternal    = "internal"
)

// Callback results
const (
	CallbackSuccess      = "success"
	CallbackMissingCode  = "missing_code"
	CallbackTokenError   = "token_error"
	CallbackProfileError = "profile_error"
	CallbackSessionError = "session_error"
)

// otherPath is the label for requests that did not hit a registered route
const otherPath = "other"

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	routes   map[string]struct{}

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadResults   *prometheus.CounterVec
	callbackResults *prometheus.CounterVec
}

// New creates the collectors. routes lists the paths used as label values;
// anything else is counted as "other" to keep cardinality bounded.
func New(routes ...string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		routes:   make(map[string]struct{}, len(routes)),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		}, []string{"method", "path", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		uploadResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_forward_results_total",
			Help: "Upload proxy outcomes",
		}, []string{"result"}),

		callbackResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_callbacks_total",
			Help: "Login callback outcomes",
		}, []string{"result"}),
	}
	for _, route := range routes {
		m.routes[route] = struct{}{}
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.uploadResults,
		m.callbackResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUpload counts one upload proxy outcome
func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.uploadResults.WithLabelValues(result).Inc()
}

// ObserveCallback counts one login callback outcome
func (m *Metrics) ObserveCallback(result string) {
	if m == nil {
		return
	}
	m.callbackResults.WithLabelValues(result).Inc()
}

// WithMetrics instruments next with request counters and latency
func (m *Metrics) WithMetrics(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		path := m.pathLabel(r.URL.Path)
		start := time.Now()

		rec := NewStatusRecorder(w)
		defer func() {
			m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(rec.Status())).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

func (m *Metrics) pathLabel(path string) string {
	if _, ok := m.routes[path]; ok {
		return path
	}
	return otherPath
}

// StatusRecorder remembers the status code written through it
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

func (r *StatusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the written status, 200 when nothing was written explicitly
func (r *StatusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
