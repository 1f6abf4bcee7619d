package service

import (
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/microservices/auth/repository"
	"restaurant-admin/internal/microservices/auth/session"
)

type Service struct {
	AuthService  AuthServiceInterface
	AdminService AdminServiceInterface
}

type Deps struct {
	Repo     *repository.Repository
	Sessions *session.Manager
	Revoked  session.RevocationStore
	Hasher   *PasswordHasher
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

func New(d Deps) *Service {
	return &Service{
		AuthService:  NewAuthService(d.Repo.AdminRepo, d.Sessions, d.Revoked, d.Hasher, d.Metrics, d.Log),
		AdminService: NewAdminService(d.Repo.AdminRepo, d.Hasher, d.Log),
	}
}
