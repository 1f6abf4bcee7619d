package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	LoginPath     = "/admin/login"
	DashboardPath = "/admin/dashboard"

	identityKey = "admin_identity"
	tokenKey    = "admin_session_token"
)

// IdentityFrom returns the identity RequireSession stored for this request.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

// SetIdentity attaches an authenticated identity to the request.
func SetIdentity(c *gin.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// SessionTokenFrom returns the raw session token of an authenticated request.
func SessionTokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Authenticate resolves the session cookie of the request.
func (h *AuthHandler) Authenticate(c *gin.Context) (domain.Identity, string, error) {
	token, err := c.Cookie(h.cookie.Name)
	if err != nil || token == "" {
		return domain.Identity{}, "", domain.ErrUnauthorized
	}
	id, err := h.auth.RequireAuth(c.Request.Context(), token)
	if err != nil {
		return domain.Identity{}, "", err
	}
	return id, token, nil
}

func (h *AuthHandler) authenticate(c *gin.Context) bool {
	id, token, err := h.Authenticate(c)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			logger.FromGin(c, h.log).Error("session_check_failed", err, nil)
		}
		return false
	}
	SetIdentity(c, id)
	c.Set(tokenKey, token)
	return true
}

// RequireSession sends unauthenticated requests to the login page, keeping
// the requested path in ?next=.
func (h *AuthHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authenticate(c) {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSessionStrict answers 401 instead of redirecting. Used where a
// redirect makes no sense, such as the websocket handshake.
func (h *AuthHandler) RequireSessionStrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authenticate(c) {
			httpx.RespondError(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// safeNext accepts only local absolute paths so ?next= cannot redirect offsite.
func safeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return DashboardPath
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return DashboardPath
	}
	return next
}
