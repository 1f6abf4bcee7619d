package auth

import (
	"restaurant-admin/internal/microservices/auth/handlers"

	"github.com/gin-gonic/gin"
)

// Register mounts the public login routes on r and the admin user CRUD on
// the authenticated group.
func Register(r *gin.Engine, protected *gin.RouterGroup, h *handlers.Handler) {
	r.GET("/", h.AuthHandler.Index)
	r.GET(handlers.LoginPath, h.AuthHandler.LoginPage)
	r.POST(handlers.LoginPath, h.AuthHandler.Login)

	protected.GET("/logout", h.AuthHandler.Logout)

	users := protected.Group("/users")
	users.GET("", h.AdminUserHandler.List)
	users.GET("/:id", h.AdminUserHandler.Get)
	users.POST("", h.AdminUserHandler.Create)
	users.PUT("/:id", h.AdminUserHandler.Update)
	users.DELETE("/:id", h.AdminUserHandler.Delete)
}
