package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/logger"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/dto"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Paths served outside the versioned API
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// EngineConfig configures the gin engine and its global middleware
type EngineConfig struct {
	Mode           string // gin.ReleaseMode, gin.DebugMode or gin.TestMode
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodyBytes   int64
	Tracing        middleware.TracingConfig
	Metrics        *metrics.Registry // nil disables HTTP metrics and /metrics
	Logger         *zap.Logger
}

// NewEngine builds a gin engine with the middleware stack in serving order:
// request ID, access log, recovery, tracing, metrics, security headers,
// CORS and the body limit. Route-specific middleware (rate limiting) is
// attached by the route groups.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	quiet := []string{HealthPath, MetricsPath}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, quiet...))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing), middleware.SpanEnricher())

	var httpMetrics *metrics.HTTPMetrics
	if cfg.Metrics != nil {
		httpMetrics = cfg.Metrics.HTTP
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Metrics:   httpMetrics,
		SkipPaths: quiet,
	}))
	engine.Use(middleware.SecureWithConfig(cfg.Security))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	if cfg.Metrics != nil {
		engine.GET(MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	return engine, nil
}
