package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const maxDeliveryAttempts = 3

type EventHandler func(ctx context.Context, event events.CheckoutEvent) error

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
	logger      *zap.Logger
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
		logger:      logger,
	}
}

func (c *Consumer) ConsumeEvents(routingKeys []string, handler EventHandler) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queueName, err)
	}

	for _, routingKey := range routingKeys {
		if err := channel.QueueBind(queue.Name, routingKey, c.client.Exchange(), false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", routingKey, err)
		}
		c.logger.Info("queue bound", zap.String("queue", queue.Name), zap.String("routing_key", routingKey))
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.serviceName, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", queue.Name, err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					c.logger.Warn("delivery channel closed", zap.String("queue", queue.Name))
					return
				}
				c.handleMessage(msg, handler)
			case <-c.client.Done():
				c.logger.Info("consumer stopped", zap.String("consumer", c.serviceName))
				return
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(msg amqp.Delivery, handler EventHandler) {
	var event events.CheckoutEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error("undecodable event dropped", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := handler(ctx, event); err != nil {
		c.logger.Warn("event handling failed",
			zap.String("event_type", string(event.EventType)),
			zap.String("event_id", event.ID.String()),
			zap.Error(err))

		if shouldRetry(msg.Headers) {
			c.republish(msg)
		} else {
			msg.Nack(false, false)
		}
		return
	}

	msg.Ack(false)
}

// shouldRetry reports whether a delivery still has attempts left, counting
// both broker x-death records and our own x-retry header.
func shouldRetry(headers amqp.Table) bool {
	if xDeath, ok := headers["x-death"]; ok {
		if deathArray, ok := xDeath.([]interface{}); ok && len(deathArray) > 0 {
			if death, ok := deathArray[0].(amqp.Table); ok {
				if count, ok := death["count"].(int64); ok && count >= maxDeliveryAttempts {
					return false
				}
			}
		}
	}
	return retryCount(headers) < maxDeliveryAttempts
}

func retryCount(headers amqp.Table) int32 {
	switch v := headers["x-retry"].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

func (c *Consumer) republish(msg amqp.Delivery) {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retry"] = retryCount(msg.Headers) + 1

	time.Sleep(2 * time.Second)

	err := c.client.Channel().Publish(
		msg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			DeliveryMode: msg.DeliveryMode,
			MessageId:    msg.MessageId,
			Headers:      headers,
		},
	)
	if err != nil {
		c.logger.Error("retry publish failed", zap.Error(err))
		msg.Nack(false, false)
		return
	}
	msg.Ack(false)
}
