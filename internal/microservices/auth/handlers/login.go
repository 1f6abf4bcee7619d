package handlers

import (
	"errors"
	"net/http"
	"time"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/auth/service"

	"github.com/gin-gonic/gin"
)

const (
	msgLoginOK     = "Inicio de sesión exitoso."
	msgLoginFailed = "Nombre de usuario o contraseña incorrectos."
	msgLoginError  = "No se pudo iniciar sesión. Inténtalo de nuevo."
	msgLoggedOut   = "Has cerrado sesión."
)

type CookieOptions struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   service.AuthServiceInterface
	cookie CookieOptions
	log    *logger.Logger
}

func NewAuthHandler(auth service.AuthServiceInterface, cookie CookieOptions, lg *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, log: lg}
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

// Index sends the visitor to the dashboard or the login page.
func (h *AuthHandler) Index(c *gin.Context) {
	if _, _, err := h.Authenticate(c); err == nil {
		c.Redirect(http.StatusFound, DashboardPath)
		return
	}
	c.Redirect(http.StatusFound, LoginPath)
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	if _, _, err := h.Authenticate(c); err == nil {
		c.Redirect(http.StatusFound, DashboardPath)
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Flash": httpx.PopFlash(c),
		"Next":  c.Query("next"),
	})
}

// Login accepts a form post or a JSON body.
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		httpx.RespondError(c, domain.NewValidationError("body", "invalid login request"))
		return
	}
	wantsJSON := c.ContentType() == gin.MIMEJSON

	sess, err := h.auth.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		status, msg := http.StatusUnauthorized, msgLoginFailed
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			logger.FromGin(c, h.log).Error("login_error", err, nil)
			status, msg = http.StatusInternalServerError, msgLoginError
		}
		if wantsJSON {
			c.JSON(status, domain.MessageResponse{Message: msg})
			return
		}
		c.HTML(status, "login.html", gin.H{
			"Flash":    &httpx.Flash{Level: httpx.FlashDanger, Message: msg},
			"Next":     form.Next,
			"Username": form.Username,
		})
		return
	}

	h.setSessionCookie(c, sess.Token, int(time.Until(sess.ExpiresAt).Seconds()))
	if wantsJSON {
		c.JSON(http.StatusOK, gin.H{"message": msgLoginOK, "username": sess.Identity.Username})
		return
	}
	httpx.SetFlash(c, httpx.FlashSuccess, msgLoginOK)
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout revokes the session and clears the cookie. RequireSession runs first.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), SessionTokenFrom(c)); err != nil {
		logger.FromGin(c, h.log).Error("logout_failed", err, nil)
	}
	h.setSessionCookie(c, "", -1)
	httpx.SetFlash(c, httpx.FlashInfo, msgLoggedOut)
	c.Redirect(http.StatusFound, LoginPath)
}
