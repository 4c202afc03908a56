package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry builds the process-wide Prometheus registry with the standard
// runtime collectors registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// HTTPMetrics instruments the HTTP surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promos_http_requests_total",
			Help: "HTTP requests by route, method, and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promos_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(route, method, status).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// PromotionMetrics counts validation and redemption outcomes.
type PromotionMetrics struct {
	validations *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

func NewPromotionMetrics(registry *prometheus.Registry) (*PromotionMetrics, error) {
	m := &PromotionMetrics{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promos_validations_total",
			Help: "Promo code validation outcomes.",
		}, []string{"result"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promos_redemptions_total",
			Help: "Promo code redemption outcomes.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promos_rate_limited_total",
			Help: "Requests denied by the promo endpoint rate limiter.",
		}, []string{"endpoint"}),
	}

	for _, c := range []prometheus.Collector{m.validations, m.redemptions, m.rateLimited} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordValidation counts one validation outcome. result is either "valid"
// or the validation error kind.
func (m *PromotionMetrics) RecordValidation(result string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
}

// RecordRedemption counts one redemption outcome.
func (m *PromotionMetrics) RecordRedemption(result string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(result).Inc()
}

// RecordRateLimited counts one denied request per endpoint.
func (m *PromotionMetrics) RecordRateLimited(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(endpoint).Inc()
}
