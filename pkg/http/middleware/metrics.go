package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics holds the request collectors. Labels use the route template
// (c.Path()) so path parameters do not blow up cardinality.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &HTTPMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		}, []string{"endpoint", "method", "http_status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_request_latency_seconds",
			Help:    "API request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		inFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "api_in_flight_requests",
			Help: "Current number of in-flight API requests",
		}, []string{"endpoint"}),
	}
}

// Middleware must run inside RequestLogging so returned errors already have a status.
func (m *HTTPMetrics) Middleware(skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			endpoint := routeLabel(c)
			if _, ok := skipped[endpoint]; ok {
				return next(c)
			}

			m.inFlight.WithLabelValues(endpoint).Inc()
			defer m.inFlight.WithLabelValues(endpoint).Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(endpoint, c.Request().Method, strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}

func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
