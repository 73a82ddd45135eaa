// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for API traffic. Label values
// are kept bounded:
//
//   - route:   the registered Gin route, or "unmatched" for 404s so scanners
//     cannot mint label values
//   - product: the :slug parameter when it names a catalog product, "other"
//     for unknown slugs and "" on routes without one
//   - code:    the error envelope code (confirmation_required,
//     follow_up_limit, ...) recorded through SetErrorCode
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	errorCodeKey   = "errorCode"
	unmatchedRoute = "unmatched"
	otherProduct   = "other"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route, product and status.",
		},
		[]string{"method", "route", "product", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Step-1 uploads and deliverables dominate the upper buckets.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20, 2 << 20, 5 << 20,
			},
		},
		[]string{"method", "route"},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Error responses by route and error envelope code.",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, apiErrors)
}

// SetErrorCode records the envelope code of an error response so Metrics can
// count it. Handlers call it from their error helpers.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// MetricsOptions configures Metrics.
type MetricsOptions struct {
	// Products are the catalog slugs accepted as product label values.
	Products []string
}

// Metrics instruments requests with Prometheus. Mount /metrics separately:
//
//	r.Use(middleware.Metrics(middleware.MetricsOptions{Products: slugs}))
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics(opt MetricsOptions) gin.HandlerFunc {
	known := make(map[string]bool, len(opt.Products))
	for _, p := range opt.Products {
		known[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		product := c.Param("slug")
		if product != "" && !known[product] {
			product = otherProduct
		}
		method := c.Request.Method
		status := c.Writer.Status()

		httpReqs.WithLabelValues(method, route, product, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
		if status >= 400 {
			code := c.GetString(errorCodeKey)
			if code == "" {
				code = strconv.Itoa(status)
			}
			apiErrors.WithLabelValues(route, code).Inc()
		}
	}
}
