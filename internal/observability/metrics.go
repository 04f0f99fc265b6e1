package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and relay flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	relaysTotal          *prometheus.CounterVec
	relayDuration        *prometheus.HistogramVec
	transportFaultsTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "etims_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "etims_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		relaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "etims_relay",
				Name:      "relays_total",
				Help:      "Total number of outbound relays grouped by route and outcome.",
			},
			[]string{"route", "outcome"},
		),
		relayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "etims_relay",
				Name:      "relay_duration_seconds",
				Help:      "Outbound relay duration in seconds grouped by route.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"route"},
		),
		transportFaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "etims_relay",
				Name:      "transport_faults_total",
				Help:      "Total number of network-layer faults grouped by fault kind.",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.relaysTotal,
		m.relayDuration,
		m.transportFaultsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncRelay(route string, outcome string) {
	if m == nil {
		return
	}

	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.relaysTotal.WithLabelValues(normalizeRoute(route), outcomeLabel).Inc()
}

func (m *Metrics) ObserveRelayDuration(route string, duration time.Duration) {
	if m == nil {
		return
	}

	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.relayDuration.WithLabelValues(normalizeRoute(route)).Observe(seconds)
}

func (m *Metrics) IncTransportFault(kind string) {
	if m == nil {
		return
	}

	kindLabel := strings.TrimSpace(strings.ToLower(kind))
	if kindLabel == "" {
		kindLabel = "unknown"
	}
	m.transportFaultsTotal.WithLabelValues(kindLabel).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeRoute(route string) string {
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
