package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Metrics receives the observations. Nil disables the middleware.
	Metrics *metrics.HTTPMetrics
	// SkipPaths are not recorded, typically the scrape endpoint itself.
	SkipPaths []string
}

// HTTPMetrics returns a Gin middleware that records request count, latency
// and in-flight requests by route pattern.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if cfg.Metrics == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skipped := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		cfg.Metrics.Start()

		c.Next()

		cfg.Metrics.Observe(c.Request.Method, getRoutePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// getRoutePattern returns the route pattern (e.g., "/api/v1/catalogue/products/:id/pdf")
// instead of the actual path to avoid high cardinality issues.
func getRoutePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unknown"
	}
	return route
}
