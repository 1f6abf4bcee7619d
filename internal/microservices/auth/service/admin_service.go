package service

import (
	"context"
	"fmt"
	"strings"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/auth/repository"
)

const maxUsernameLength = 80

type AdminServiceInterface interface {
	List(ctx context.Context) ([]domain.AdminUser, error)
	Get(ctx context.Context, id int64) (domain.AdminUser, error)
	Create(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error)
	Update(ctx context.Context, id int64, in domain.AdminUserInput) (domain.AdminUser, error)
	Delete(ctx context.Context, actor domain.Identity, id int64) error
	CheckPassword(user domain.AdminUser, password string) bool
}

type AdminService struct {
	repo   repository.AdminRepositoryInterface
	hasher *PasswordHasher
	log    *logger.Logger
}

func NewAdminService(repo repository.AdminRepositoryInterface, hasher *PasswordHasher, lg *logger.Logger) AdminServiceInterface {
	return &AdminService{repo: repo, hasher: hasher, log: lg}
}

func validateUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", domain.NewValidationError("username", "username is required")
	}
	if len(u) > maxUsernameLength {
		return "", domain.NewValidationError("username", "username cannot exceed 80 characters")
	}
	return u, nil
}

func (s *AdminService) List(ctx context.Context) ([]domain.AdminUser, error) {
	return s.repo.List(ctx)
}

func (s *AdminService) Get(ctx context.Context, id int64) (domain.AdminUser, error) {
	return s.repo.FindByID(ctx, id)
}

// Create refuses an empty password; an admin account always has one.
func (s *AdminService) Create(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return domain.AdminUser{}, err
	}
	if strings.TrimSpace(in.Password) == "" {
		return domain.AdminUser{}, domain.NewValidationError("password", "password is required when creating an admin user")
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return domain.AdminUser{}, err
	}
	if exists {
		return domain.AdminUser{}, domain.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.AdminUser{}, err
	}
	user, err := s.repo.Create(ctx, domain.AdminUser{Username: username, PasswordHash: hash})
	if err != nil {
		return domain.AdminUser{}, err
	}
	s.log.Info("admin_user_created", map[string]any{"admin_id": user.ID, "username": user.Username})
	return user, nil
}

// Update renames and/or resets the password. An empty or blank password
// keeps the current hash.
func (s *AdminService) Update(ctx context.Context, id int64, in domain.AdminUserInput) (domain.AdminUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.AdminUser{}, err
	}
	if strings.TrimSpace(in.Username) != "" {
		if user.Username, err = validateUsername(in.Username); err != nil {
			return domain.AdminUser{}, err
		}
	}
	passwordChanged := strings.TrimSpace(in.Password) != ""
	if passwordChanged {
		if user.PasswordHash, err = s.hasher.Hash(in.Password); err != nil {
			return domain.AdminUser{}, err
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.AdminUser{}, err
	}
	s.log.Info("admin_user_updated", map[string]any{"admin_id": id, "password_changed": passwordChanged})
	return updated, nil
}

func (s *AdminService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if actor.UserID == id {
		return domain.NewValidationError("id", "you cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete admin user: %w", err)
	}
	s.log.Info("admin_user_deleted", map[string]any{"admin_id": id, "by": actor.Username})
	return nil
}

func (s *AdminService) CheckPassword(user domain.AdminUser, password string) bool {
	return s.hasher.Compare(user.PasswordHash, password)
}
