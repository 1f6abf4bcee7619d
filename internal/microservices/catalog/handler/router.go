package handler

import "github.com/gin-gonic/gin"

// Router mounts product CRUD under g, which must already require a session.
func Router(g *gin.RouterGroup, h *Handler) {
	products := g.Group("/products")
	products.GET("", h.ProductHandler.List)
	products.GET("/:id", h.ProductHandler.Get)
	products.POST("", h.ProductHandler.Create)
	products.PUT("/:id", h.ProductHandler.Update)
	products.DELETE("/:id", h.ProductHandler.Delete)
}
