package handlers

import (
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/microservices/auth/service"
)

type Handler struct {
	AuthHandler      *AuthHandler
	AdminUserHandler *AdminUserHandler
}

func New(s *service.Service, cookie CookieOptions, lg *logger.Logger) *Handler {
	return &Handler{
		AuthHandler:      NewAuthHandler(s.AuthService, cookie, lg),
		AdminUserHandler: NewAdminUserHandler(s.AdminService),
	}
}
