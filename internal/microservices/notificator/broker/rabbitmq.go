package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/connections/rabbitmq"
	"restaurant-admin/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// AMQPClient is the part of rabbitmq.Client the broker needs.
type AMQPClient interface {
	DeclareFanout(name string) error
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, contentType string, persistent bool) error
	SubscribeFanout(exchange, consumer string) (*rabbitmq.Subscription, error)
}

// AMQP publishes events to a fanout exchange. Every node runs a Relay that
// feeds them back into its own group, including the publishing node.
type AMQP struct {
	client   AMQPClient
	exchange string
}

func NewAMQP(client AMQPClient, exchange string) (*AMQP, error) {
	if err := client.DeclareFanout(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}
	return &AMQP{client: client, exchange: exchange}, nil
}

func (p *AMQP) Publish(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Name, err)
	}
	headers := amqp.Table{"event": ev.Name}
	if err := p.client.Publish(ctx, p.exchange, "", body, headers, contentTypeJSON, false); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Name, err)
	}
	return nil
}

// Relay consumes the fanout exchange and broadcasts each event locally.
type Relay struct {
	client   AMQPClient
	exchange string
	consumer string
	group    Broadcaster
	log      *logger.Logger
}

func NewRelay(client AMQPClient, exchange, consumer string, group Broadcaster, lg *logger.Logger) *Relay {
	return &Relay{client: client, exchange: exchange, consumer: consumer, group: group, log: lg}
}

// Run subscribes and relays until ctx is done or the delivery channel closes.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.client.SubscribeFanout(r.exchange, r.consumer)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %q: %w", r.exchange, err)
	}
	defer func() { _ = sub.Close() }()

	r.log.Info("relay_started", map[string]any{"exchange": r.exchange, "queue": sub.Queue})
	return r.consume(ctx, sub.Deliveries)
}

func (r *Relay) consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay_stopped", map[string]any{"exchange": r.exchange})
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %q closed", r.exchange)
			}
			var ev domain.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil || ev.Name == "" {
				r.log.Warn("relay_bad_message", map[string]any{
					"exchange":     r.exchange,
					"content_type": d.ContentType,
					"bytes":        len(d.Body),
				})
				continue
			}
			r.group.Broadcast(ev)
		}
	}
}
