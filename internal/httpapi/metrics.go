package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vetreport/backend/internal/domain"
)

// Metrics holds the API collectors on a private registry, so tests can build
// several APIs without duplicate registration.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	reportFailures  *prometheus.CounterVec
	exports         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vetreport",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		reportFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vetreport",
				Name:      "report_failures_total",
				Help:      "Reports that failed to compute",
			},
			[]string{"report"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vetreport",
				Name:      "exports_total",
				Help:      "Workbooks generated by mode",
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(m.requestDuration, m.reportFailures, m.exports)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) reportFailed(report string) {
	m.reportFailures.WithLabelValues(report).Inc()
}

func (m *Metrics) exported(mode domain.Mode) {
	m.exports.WithLabelValues(string(mode)).Inc()
}
