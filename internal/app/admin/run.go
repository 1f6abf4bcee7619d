package admin

import (
	"context"
	"fmt"
	"strconv"

	"restaurant-admin/internal/common/httpx"
	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/connections/database"
	"restaurant-admin/internal/connections/rabbitmq"
	"restaurant-admin/internal/connections/redis"
	"restaurant-admin/internal/microservices/auth/session"
	"restaurant-admin/internal/microservices/notificator"
)

// Run connects the backing services and serves the admin panel until ctx is
// cancelled.
func Run(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	db, err := database.ConnectDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer db.Close()
	lg.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, lg); err != nil {
			return err
		}
	}

	var revoked session.RevocationStore = session.NewInMemoryRevocationStore()
	if cfg.Session.Store == "redis" {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoked = session.NewRedisRevocationStore(rdb)
		lg.Info("redis_connected", map[string]any{"host": cfg.Redis.Host, "db": cfg.Redis.DB})
	}

	var amqp *rabbitmq.Client
	if cfg.Notify.Broker == notificator.BrokerRabbitMQ {
		amqp, err = rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("rabbitmq connect: %w", err)
		}
		defer amqp.Close()
		lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "exchange": cfg.Notify.Exchange})
	}

	router, err := NewRouter(ctx, cfg, Deps{
		DB:      db,
		Revoked: revoked,
		AMQP:    amqp,
		Metrics: metrics.New(),
		Log:     lg,
	})
	if err != nil {
		return err
	}

	srv := httpx.New(":"+strconv.Itoa(cfg.App.Port), router, httpx.Options{
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})
	lg.Info("service_started", map[string]any{
		"service": cfg.App.Name,
		"port":    cfg.App.Port,
		"env":     cfg.App.Env,
		"broker":  cfg.Notify.Broker,
	})
	return srv.Run(ctx)
}
