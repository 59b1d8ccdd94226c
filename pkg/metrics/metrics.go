package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   latencyBuckets,
	}, []string{"method", "path"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Middleware records one sample per request. It must run inside the
// request logger so the response status is final.
func (m *ServerMetrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		m.Requests.WithLabelValues(c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
		m.LatencyMS.WithLabelValues(c.Request().Method, path).Observe(float64(time.Since(start).Milliseconds()))
		return nil
	}
}

type CheckoutMetrics struct {
	Checkouts  *prometheus.CounterVec
	DurationMS prometheus.Histogram
	Attempts   prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer, service string) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkouts by outcome.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkout_duration_ms",
		Help:      "Checkout latency in milliseconds, retries included.",
		Buckets:   latencyBuckets,
	})
	attempts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkout_attempts_total",
		Help:      "Checkout transaction attempts, retries included.",
	})

	reg.MustRegister(checkouts, duration, attempts)
	return &CheckoutMetrics{Checkouts: checkouts, DurationMS: duration, Attempts: attempts}
}

func (m *CheckoutMetrics) Observe(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
	m.DurationMS.Observe(float64(d.Milliseconds()))
}

func (m *CheckoutMetrics) Attempt() {
	if m == nil {
		return
	}
	m.Attempts.Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
