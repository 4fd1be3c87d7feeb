package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/dto"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("catalogue", "/catalogue")
	group.GET("/products/:id/buttons", func(c *gin.Context) {
		c.String(http.StatusOK, "buttons "+c.Param("id"))
	})
	group.POST("/bulk", func(c *gin.Context) {
		c.String(http.StatusOK, "bulk")
	})

	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/catalogue/products/9/buttons", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buttons 9", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/catalogue/bulk", nil))
	assert.Equal(t, "bulk", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalogue", "/catalogue")
		assert.Equal(t, "catalogue", g.Name())
		assert.Equal(t, "/catalogue", g.Prefix())
	})

	t.Run("group middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Group", "yes")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/test/items", nil))

		assert.Equal(t, "yes", w.Header().Get("X-Group"))
	})
}

func TestNewEngine(t *testing.T) {
	reg := metrics.NewRegistry()
	core, logs := observer.New(zap.InfoLevel)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = []string{"https://shop.example.com"}

	engine, err := NewEngine(EngineConfig{
		Mode:         gin.TestMode,
		CORS:         cors,
		Security:     middleware.DefaultSecurityConfig(),
		MaxBodyBytes: 64,
		Metrics:      reg,
		Logger:       zap.New(core),
	})
	require.NoError(t, err)

	engine.GET(HealthPath, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.POST("/api/v1/echo", func(c *gin.Context) { c.String(http.StatusOK, "echo") })
	engine.GET("/api/v1/panic", func(c *gin.Context) { panic("boom") })
	engine.POST("/api/v1/share", func(c *gin.Context) {
		var req dto.ShareCatalogueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("request id and access log", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/echo", strings.NewReader("hi"))
		req.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, 1, logs.FilterMessage("HTTP Request").FilterField(zap.String("path", "/api/v1/echo")).Len())
	})

	t.Run("body limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/echo", strings.NewReader(strings.Repeat("x", 65))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("recovery", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("validation reports json field names", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/share", strings.NewReader(`{"subject":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"recipients"`)
		assert.NotContains(t, w.Body.String(), "Recipients")
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("health and metrics are quiet", func(t *testing.T) {
		before := logs.FilterMessage("HTTP Request").Len()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", HealthPath, nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", MetricsPath, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "http_requests_total")

		assert.Equal(t, before, logs.FilterMessage("HTTP Request").Len())
	})
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(EngineConfig{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}
