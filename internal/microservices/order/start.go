package order

import (
	"database/sql"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/microservices/order/handlers"
	"restaurant-admin/internal/microservices/order/repository"
	"restaurant-admin/internal/microservices/order/service"

	"github.com/gin-gonic/gin"
)

// NewService builds the order service; the realtime hub needs it too.
func NewService(db *sql.DB, cfg config.OrdersConfig, lg *logger.Logger) *service.Service {
	paging := repository.Paging{Default: cfg.PageSize, Max: cfg.MaxPageSize}
	return service.New(repository.New(db, paging), lg.Named("order"))
}

// Register mounts the dashboard and order CRUD on the authenticated group.
func Register(protected *gin.RouterGroup, svc *service.Service, status handlers.StatusUpdater) {
	h := handlers.New(svc, status)

	protected.GET("/dashboard", h.OrderHandler.Dashboard)

	orders := protected.Group("/orders")
	orders.GET("", h.OrderHandler.List)
	orders.GET("/:id", h.OrderHandler.Get)
	orders.POST("", h.OrderHandler.Create)
	orders.PUT("/:id", h.OrderHandler.Update)
	orders.DELETE("/:id", h.OrderHandler.Delete)
	orders.PATCH("/:id/status", h.OrderHandler.UpdateStatus)
}
