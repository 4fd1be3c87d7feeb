package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/router"
)

// CatalogueRoutes creates the route group for catalogue endpoints. The
// share route takes its own middleware, typically a rate limiter.
func CatalogueRoutes(handler *CatalogueHandler, shareMiddleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("catalogue", "/catalogue")

	// Generation
	group.POST("/bulk", handler.GenerateBulk)
	group.GET("/products/:id/pdf", handler.GenerateSingle)

	// Product page integration
	group.GET("/products/:id/buttons", handler.ButtonState)
	share := append(append([]gin.HandlerFunc{}, shareMiddleware...), handler.Share)
	group.POST("/products/:id/share", share...)

	return group
}
