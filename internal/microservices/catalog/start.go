package catalog

import (
	"database/sql"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/microservices/catalog/handler"
	"restaurant-admin/internal/microservices/catalog/repository"
	"restaurant-admin/internal/microservices/catalog/service"

	"github.com/gin-gonic/gin"
)

// Start wires the product catalog onto the authenticated group.
func Start(protected *gin.RouterGroup, db *sql.DB, lg *logger.Logger) {
	repo := repository.NewProductRepo(db)
	svc := service.NewCatalogService(repo, lg.Named("catalog"))
	handler.Router(protected, handler.New(svc))
}
