// Package metrics exposes Prometheus collectors for the HTTP surface and the
// datastore gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	dsOps           *prometheus.CounterVec
	dsErrors        *prometheus.CounterVec
	dsDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerly",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledgerly",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		dsOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerly",
			Name:      "datastore_operations_total",
			Help:      "Datastore gateway calls by operation and table.",
		}, []string{"op", "table"}),
		dsErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerly",
			Name:      "datastore_errors_total",
			Help:      "Failed datastore gateway calls by operation and table.",
		}, []string{"op", "table"}),
		dsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledgerly",
			Name:      "datastore_operation_duration_seconds",
			Help:      "Datastore gateway latency by operation.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.dsOps, m.dsErrors, m.dsDuration)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDatastore records one gateway call.
func (m *Metrics) ObserveDatastore(op, table string, started time.Time, err error) {
	m.dsOps.WithLabelValues(op, table).Inc()
	m.dsDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())

	if err != nil {
		m.dsErrors.WithLabelValues(op, table).Inc()
	}
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
