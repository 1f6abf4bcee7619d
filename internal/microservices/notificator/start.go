package notificator

import (
	"context"
	"errors"
	"fmt"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/config"
	"restaurant-admin/internal/connections/rabbitmq"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/notificator/broker"
	"restaurant-admin/internal/microservices/notificator/handler"
	"restaurant-admin/internal/microservices/notificator/hub"
	"restaurant-admin/internal/microservices/notificator/service"

	"github.com/gin-gonic/gin"
)

const (
	BrokerLocal    = "local"
	BrokerRabbitMQ = "rabbitmq"
)

type Deps struct {
	Orders  service.Orders
	Auth    service.Authenticator
	AMQP    *rabbitmq.Client // required for the rabbitmq broker
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// Start builds the dashboard hub and mounts the realtime channel and the
// notification endpoint. Connections and the relay stop when ctx is done.
// The returned service also backs status changes made over plain HTTP.
func Start(ctx context.Context, r *gin.Engine, realtime *gin.RouterGroup, cfg *config.Config, d Deps) (*service.Service, error) {
	lg := d.Log.Named("notificator")
	group := hub.NewGroup(domain.DashboardRoom, d.Metrics, lg)

	var publisher broker.Publisher
	switch cfg.Notify.Broker {
	case BrokerRabbitMQ:
		if d.AMQP == nil {
			return nil, errors.New("rabbitmq broker selected without a connection")
		}
		amqpPub, err := broker.NewAMQP(d.AMQP, cfg.Notify.Exchange)
		if err != nil {
			return nil, err
		}
		publisher = amqpPub

		relay := broker.NewRelay(d.AMQP, cfg.Notify.Exchange, cfg.App.Name, group, lg)
		go func() {
			if err := relay.Run(ctx); err != nil {
				lg.Error("relay_failed", err, map[string]any{"exchange": cfg.Notify.Exchange})
			}
		}()
	case BrokerLocal, "":
		publisher = broker.NewLocal(group)
	default:
		return nil, fmt.Errorf("unknown notify broker %q", cfg.Notify.Broker)
	}

	svc := service.New(service.Deps{
		Orders:    d.Orders,
		Auth:      d.Auth,
		Publisher: publisher,
		Metrics:   d.Metrics,
		Log:       lg,
	})

	ws := handler.NewWSHandler(svc.NotificatorService, group, handler.WSOptions{
		SendBuffer:     cfg.Realtime.SendBuffer,
		PingInterval:   cfg.Realtime.PingInterval,
		SessionCheck:   cfg.Realtime.SessionCheck,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	}, lg)
	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	notification := handler.NewNotificationHandler(svc.NotificatorService, cfg.Notify.SharedSecret, lg)
	handler.Router(r, realtime, handler.New(ws, notification))

	lg.Info("notificator_started", map[string]any{"broker": cfg.Notify.Broker, "room": group.Name()})
	return svc, nil
}
