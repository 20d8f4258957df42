package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus collectors of the service. Every method is safe
// to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	externalRequests       *prometheus.CounterVec
	externalLatency        *prometheus.HistogramVec
	scrapeOutcomes         *prometheus.CounterVec
	recommendationRequests prometheus.Counter
	recommendationLatency  prometheus.Histogram
	failedProblems         prometheus.Histogram
	adviceRequests         *prometheus.CounterVec
	httpRequests           *prometheus.CounterVec
	httpLatency            *prometheus.HistogramVec
	healthStatus           *prometheus.GaugeVec
}

// NewMetrics creates a new metrics collector on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		externalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atcpro_external_requests_total",
			Help: "Calls to external data sources by source and outcome",
		}, []string{"source", "outcome"}),

		externalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atcpro_external_request_duration_seconds",
			Help:    "External call latency in seconds, including throttling",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"source"}),

		scrapeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atcpro_editorial_scrape_total",
			Help: "Editorial scrape results by outcome",
		}, []string{"outcome"}),

		recommendationRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atcpro_recommendation_requests_total",
			Help: "Total number of recommendation runs",
		}),

		recommendationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atcpro_recommendation_duration_seconds",
			Help:    "Recommendation run latency in seconds",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),

		failedProblems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atcpro_recommendation_failed_problems",
			Help:    "Distinct WA/TLE problems per recommendation run",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),

		adviceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atcpro_advice_requests_total",
			Help: "Advice generations by outcome",
		}, []string{"outcome"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atcpro_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),

		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atcpro_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		healthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "atcpro_health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.externalRequests,
		m.externalLatency,
		m.scrapeOutcomes,
		m.recommendationRequests,
		m.recommendationLatency,
		m.failedProblems,
		m.adviceRequests,
		m.httpRequests,
		m.httpLatency,
		m.healthStatus,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one external call.
func (m *Metrics) ObserveRequest(source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.externalRequests.WithLabelValues(source, outcome).Inc()
	m.externalLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveScrape records one editorial scrape result.
func (m *Metrics) ObserveScrape(outcome string) {
	if m == nil {
		return
	}
	m.scrapeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRecommendation(duration time.Duration, failed int) {
	if m == nil {
		return
	}
	m.recommendationRequests.Inc()
	m.recommendationLatency.Observe(duration.Seconds())
	m.failedProblems.Observe(float64(failed))
}

func (m *Metrics) ObserveAdvice(outcome string) {
	if m == nil {
		return
	}
	m.adviceRequests.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveHealth records the result of one dependency check.
func (m *Metrics) ObserveHealth(service string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1
	}
	m.healthStatus.WithLabelValues(service).Set(value)
}
