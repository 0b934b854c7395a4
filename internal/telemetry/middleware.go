package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route pattern and status code",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Time spent serving a request, by route pattern",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "route"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served",
	})
)

// ResponseWriter records the status code written by a handler.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

// NewResponseWriter wraps w, or returns w itself when it is already wrapped so
// nested middleware share one recorded status.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	rw.StatusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Middleware instruments next under the route pattern it is mounted at. The
// pattern, not the request path, is the label, so order numbers and ids never
// become label values.
func Middleware(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		rw := NewResponseWriter(w)
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, pattern))
		next(rw, r)
		timer.ObserveDuration()

		httpRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(rw.StatusCode)).Inc()
	}
}
