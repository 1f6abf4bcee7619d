package admin

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/connections/rabbitmq"
	"restaurant-admin/internal/microservices/auth"
	authhandlers "restaurant-admin/internal/microservices/auth/handlers"
	authrepo "restaurant-admin/internal/microservices/auth/repository"
	authservice "restaurant-admin/internal/microservices/auth/service"
	"restaurant-admin/internal/microservices/auth/session"
	"restaurant-admin/internal/microservices/catalog"
	"restaurant-admin/internal/microservices/notificator"
	"restaurant-admin/internal/microservices/order"
	"restaurant-admin/internal/web"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Deps are the long-lived connections the router is built on.
type Deps struct {
	DB      *sql.DB
	Revoked session.RevocationStore
	AMQP    *rabbitmq.Client
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// NewRouter assembles every admin route on one engine. ctx bounds the
// realtime connections and the broker relay.
func NewRouter(ctx context.Context, cfg *config.Config, d Deps) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.RequestID(), logger.GinMiddleware(d.Log), logger.Recovery(d.Log))
	r.SetHTMLTemplate(web.Templates())
	r.StaticFS("/static", web.Static())

	r.GET("/healthz", healthz(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	authSvc := authservice.New(authservice.Deps{
		Repo:     authrepo.New(d.DB),
		Sessions: session.NewManager(cfg.Session.Secret, cfg.Session.TTL),
		Revoked:  d.Revoked,
		Hasher:   authservice.NewPasswordHasher(cfg.Session.BcryptCost),
		Metrics:  d.Metrics,
		Log:      d.Log.Named("auth"),
	})
	authH := authhandlers.New(authSvc, authhandlers.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	}, d.Log.Named("auth"))

	protected := r.Group("/admin", authH.AuthHandler.RequireSession())
	realtime := r.Group("/admin", authH.AuthHandler.RequireSessionStrict())

	auth.Register(r, protected, authH)

	orderSvc := order.NewService(d.DB, cfg.Orders, d.Log)
	notifySvc, err := notificator.Start(ctx, r, realtime, cfg, notificator.Deps{
		Orders:  orderSvc.OrderService,
		Auth:    authSvc.AuthService,
		AMQP:    d.AMQP,
		Metrics: d.Metrics,
		Log:     d.Log,
	})
	if err != nil {
		return nil, err
	}
	order.Register(protected, orderSvc, notifySvc.NotificatorService)
	catalog.Start(protected, d.DB, d.Log)

	return r, nil
}

func healthz(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
