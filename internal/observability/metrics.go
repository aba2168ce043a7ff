// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the HTTP and ledger metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	postingsTotal     *prometheus.CounterVec
	duplicatesTotal   prometheus.Counter
	periodTransitions *prometheus.CounterVec
	booksUnbalanced   prometheus.Gauge
}

// NewMetrics initializes the registry and core metric families.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printforge_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_gl_postings_total",
		Help: "Committed journal entries by source type.",
	}, []string{"source_type"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "printforge_gl_duplicate_postings_total",
		Help: "Posting attempts rejected by the dedup key.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_gl_period_transitions_total",
		Help: "Fiscal period status transitions by target state.",
	}, []string{"target"})
	unbalanced := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "printforge_gl_books_unbalanced",
		Help: "1 when the latest integrity sweep found debits != credits.",
	})
	registry.MustRegister(requests, duration, postings, duplicates, transitions, unbalanced)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		postingsTotal:     postings,
		duplicatesTotal:   duplicates,
		periodTransitions: transitions,
		booksUnbalanced:   unbalanced,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordPosting counts one committed entry.
func (m *Metrics) RecordPosting(sourceType string) {
	if m == nil {
		return
	}
	m.postingsTotal.WithLabelValues(sourceType).Inc()
}

// RecordDuplicate counts one posting rejected by the dedup constraint.
func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesTotal.Inc()
}

// RecordPeriodTransition counts one close or reopen.
func (m *Metrics) RecordPeriodTransition(target string) {
	if m == nil {
		return
	}
	m.periodTransitions.WithLabelValues(target).Inc()
}

// SetBooksUnbalanced flips the integrity gauge.
func (m *Metrics) SetBooksUnbalanced(unbalanced bool) {
	if m == nil {
		return
	}
	if unbalanced {
		m.booksUnbalanced.Set(1)
		return
	}
	m.booksUnbalanced.Set(0)
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
