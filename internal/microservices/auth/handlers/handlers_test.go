package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/auth/service"
	"restaurant-admin/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const cookieName = "admin_session"

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (service.Session, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuth) RequireAuth(ctx context.Context, token string) (domain.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

type mockAdmins struct {
	mock.Mock
}

func (m *mockAdmins) List(ctx context.Context) ([]domain.AdminUser, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AdminUser), args.Error(1)
}

func (m *mockAdmins) Get(ctx context.Context, id int64) (domain.AdminUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AdminUser), args.Error(1)
}

func (m *mockAdmins) Create(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.AdminUser), args.Error(1)
}

func (m *mockAdmins) Update(ctx context.Context, id int64, in domain.AdminUserInput) (domain.AdminUser, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(domain.AdminUser), args.Error(1)
}

func (m *mockAdmins) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockAdmins) CheckPassword(user domain.AdminUser, password string) bool {
	return m.Called(user, password).Bool(0)
}

var adminIdentity = domain.Identity{UserID: 1, Username: "admin", SessionID: "sid-1"}

func newRouter(auth *mockAuth, admins *mockAdmins) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())

	h := &Handler{
		AuthHandler:      NewAuthHandler(auth, CookieOptions{Name: cookieName}, logger.Nop()),
		AdminUserHandler: NewAdminUserHandler(admins),
	}
	r.GET("/", h.AuthHandler.Index)
	r.GET(LoginPath, h.AuthHandler.LoginPage)
	r.POST(LoginPath, h.AuthHandler.Login)

	protected := r.Group("/admin", h.AuthHandler.RequireSession())
	protected.GET("/logout", h.AuthHandler.Logout)
	protected.GET("/whoami", func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.Username)
	})
	protected.POST("/users", h.AdminUserHandler.Create)
	protected.DELETE("/users/:id", h.AdminUserHandler.Delete)

	r.GET("/strict", h.AuthHandler.RequireSessionStrict(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func withSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	return req
}

func TestRequireSession(t *testing.T) {
	t.Run("no cookie redirects to login with next", func(t *testing.T) {
		r := newRouter(new(mockAuth), new(mockAdmins))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/whoami?x=1", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/login?next="+url.QueryEscape("/admin/whoami?x=1"), w.Header().Get("Location"))
	})

	t.Run("invalid session redirects", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "bad").Return(domain.Identity{}, domain.ErrUnauthorized)
		r := newRouter(auth, new(mockAdmins))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/admin/whoami", nil), "bad"))
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("valid session passes identity along", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		r := newRouter(auth, new(mockAdmins))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/admin/whoami", nil), "good"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", w.Body.String())
	})

	t.Run("strict variant answers 401", func(t *testing.T) {
		r := newRouter(new(mockAuth), new(mockAdmins))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/strict", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func postForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	session := service.Session{Token: "tok", Identity: adminIdentity, ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("success sets cookie and follows next", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, "admin", "pw").Return(session, nil)
		r := newRouter(auth, new(mockAdmins))

		w := postForm(r, url.Values{"username": {"admin"}, "password": {"pw"}, "next": {"/admin/orders"}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/orders", w.Header().Get("Location"))

		c := findCookie(w, cookieName)
		require.NotNil(t, c)
		assert.Equal(t, "tok", c.Value)
		assert.True(t, c.HttpOnly)
		assert.NotNil(t, findCookie(w, "admin_flash"))
	})

	t.Run("offsite next falls back to dashboard", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, "admin", "pw").Return(session, nil)
		r := newRouter(auth, new(mockAdmins))

		w := postForm(r, url.Values{"username": {"admin"}, "password": {"pw"}, "next": {"//evil.example/x"}})
		assert.Equal(t, DashboardPath, w.Header().Get("Location"))
	})

	t.Run("bad credentials re-render with generic message", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, "admin", "nope").Return(service.Session{}, domain.ErrInvalidCredentials)
		r := newRouter(auth, new(mockAdmins))

		w := postForm(r, url.Values{"username": {"admin"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), msgLoginFailed)
		assert.Nil(t, findCookie(w, cookieName))
	})

	t.Run("json login", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, "admin", "pw").Return(session, nil)
		r := newRouter(auth, new(mockAdmins))

		req := httptest.NewRequest(http.MethodPost, LoginPath, strings.NewReader(`{"username":"admin","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"`+msgLoginOK+`","username":"admin"}`, w.Body.String())
	})

	t.Run("login page redirects an authenticated user", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		r := newRouter(auth, new(mockAdmins))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, LoginPath, nil), "good"))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, DashboardPath, w.Header().Get("Location"))
	})

	t.Run("login page renders", func(t *testing.T) {
		r := newRouter(new(mockAuth), new(mockAdmins))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, LoginPath+"?next=/admin/products", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="/admin/products"`)
	})
}

func TestLogout(t *testing.T) {
	auth := new(mockAuth)
	auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
	auth.On("Logout", mock.Anything, "good").Return(nil)
	r := newRouter(auth, new(mockAdmins))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/admin/logout", nil), "good"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	c := findCookie(w, cookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	auth.AssertExpectations(t)
}

func TestIndex(t *testing.T) {
	r := newRouter(new(mockAuth), new(mockAdmins))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestAdminUserHandler(t *testing.T) {
	t.Run("create without password is rejected", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		admins := new(mockAdmins)
		admins.On("Create", mock.Anything, domain.AdminUserInput{Username: "maria"}).
			Return(domain.AdminUser{}, domain.NewValidationError("password", "password is required when creating an admin user"))
		r := newRouter(auth, admins)

		req := withSession(httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(`{"username":"maria"}`)), "good")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"password"`)
	})

	t.Run("created user never exposes the hash", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		admins := new(mockAdmins)
		admins.On("Create", mock.Anything, domain.AdminUserInput{Username: "maria", Password: "pw"}).
			Return(domain.AdminUser{ID: 2, Username: "maria", PasswordHash: "$2a$secret"}, nil)
		r := newRouter(auth, admins)

		req := withSession(httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(`{"username":"maria","password":"pw"}`)), "good")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("delete passes the acting identity", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		admins := new(mockAdmins)
		admins.On("Delete", mock.Anything, adminIdentity, int64(5)).Return(nil)
		r := newRouter(auth, admins)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodDelete, "/admin/users/5", nil), "good"))
		assert.Equal(t, http.StatusNoContent, w.Code)
		admins.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("RequireAuth", mock.Anything, "good").Return(adminIdentity, nil)
		r := newRouter(auth, new(mockAdmins))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodDelete, "/admin/users/abc", nil), "good"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     DashboardPath,
		"/admin/orders":        "/admin/orders",
		"/admin/orders?page=2": "/admin/orders?page=2",
		"//evil.example":       DashboardPath,
		"/\\evil.example":      DashboardPath,
		"https://evil.example": DashboardPath,
		"admin/orders":         DashboardPath,
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}
