package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ccod", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccod", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SearchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ccod", Name: "search_queries_total", Help: "Property searches by type."},
		[]string{"search_type"},
	)
	LoadRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ccod", Name: "load_rows_total", Help: "CSV rows processed by outcome."},
		[]string{"outcome"}, // outcome: property|proprietor|skipped_no_company|malformed
	)
	LoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ccod", Name: "load_duration_seconds",
			Help:    "Bulk load duration seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ccod", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, SearchQueries, LoadRows, LoadDuration, ExternalRequests)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
}
