package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/auth/repository"
	"restaurant-admin/internal/microservices/auth/session"
)

// Session is what a successful login hands back to the transport.
type Session struct {
	Token     string
	Identity  domain.Identity
	ExpiresAt time.Time
}

type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (Session, error)
	Logout(ctx context.Context, token string) error
	RequireAuth(ctx context.Context, token string) (domain.Identity, error)
}

type AuthService struct {
	users    repository.AdminRepositoryInterface
	sessions *session.Manager
	revoked  session.RevocationStore
	hasher   *PasswordHasher
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(
	users repository.AdminRepositoryInterface,
	sessions *session.Manager,
	revoked session.RevocationStore,
	hasher *PasswordHasher,
	m *metrics.Metrics,
	lg *logger.Logger,
) AuthServiceInterface {
	return &AuthService{
		users:    users,
		sessions: sessions,
		revoked:  revoked,
		hasher:   hasher,
		metrics:  m,
		log:      lg,
		now:      time.Now,
	}
}

func (s *AuthService) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(result).Inc()
	}
}

// Login checks the credentials and opens a session. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.CompareDummy(password)
		s.countLogin("failure")
		s.log.Info("login_failed", map[string]any{"username": username})
		return Session{}, domain.ErrInvalidCredentials
	case err != nil:
		s.countLogin("error")
		return Session{}, fmt.Errorf("failed to load admin user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.countLogin("failure")
		s.log.Info("login_failed", map[string]any{"username": username})
		return Session{}, domain.ErrInvalidCredentials
	}

	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		s.countLogin("error")
		return Session{}, err
	}
	s.countLogin("success")
	s.log.Info("login_succeeded", map[string]any{"username": user.Username, "session_id": claims.ID})
	return Session{Token: token, Identity: claims.Identity(), ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the session behind token. Tokens that are already invalid
// need nothing and return nil.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return err
	}
	s.log.Info("logout", map[string]any{"username": claims.Username, "session_id": claims.ID})
	return nil
}

// RequireAuth resolves token to the identity of a still-existing admin.
func (s *AuthService) RequireAuth(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Identity{}, err
	}
	if revoked {
		return domain.Identity{}, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("%w: admin user no longer exists", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to load admin user: %w", err)
	}
	return domain.Identity{UserID: user.ID, Username: user.Username, SessionID: claims.ID}, nil
}
