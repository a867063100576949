package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("no connection to rabbitmq")

// RoutingKey follows checkout.<service>.<event type>.
func RoutingKey(service string, eventType events.CheckoutEventType) string {
	return fmt.Sprintf("checkout.%s.%s", service, eventType)
}

type Publisher struct {
	client *RabbitMQClient
	logger *zap.Logger
}

func NewPublisher(client *RabbitMQClient, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event events.CheckoutEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	routingKey := RoutingKey(event.Service, event.EventType)
	err = p.client.Channel().Publish(
		p.client.Exchange(),
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"order_id":       event.OrderID.String(),
				"correlation_id": event.CorrelationID.String(),
				"service":        event.Service,
				"event_type":     string(event.EventType),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("event published",
		zap.String("routing_key", routingKey),
		zap.String("event_id", event.ID.String()))
	return nil
}

func (p *Publisher) PublishWithRetry(ctx context.Context, event events.CheckoutEvent, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = p.Publish(ctx, event); lastErr == nil {
			return nil
		}
		p.logger.Warn("publish failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(lastErr))
		if i < maxRetries-1 {
			select {
			case <-time.After(time.Duration(i+1) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", maxRetries, lastErr)
}
