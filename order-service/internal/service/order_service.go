package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/repository"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.CheckoutEvent) error
}

type OrderService struct {
	orderRepo repository.OrderRepository
	publisher EventPublisher
	logger    *zap.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder stores a pending order for draft. A draft whose correlation id
// was already stored returns the existing order and created=false, so a
// retried request never yields a second order.
func (s *OrderService) CreateOrder(ctx context.Context, draft types.OrderDraft) (order *domain.OrderAggregate, created bool, err error) {
	if draft.CorrelationID != uuid.Nil {
		existing, err := s.orderRepo.GetOrderByCorrelationID(ctx, draft.CorrelationID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, false, fmt.Errorf("lookup correlation id: %w", err)
		}
	}

	order, err = domain.NewOrderAggregate(draft)
	if err != nil {
		return nil, false, err
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			existing, getErr := s.orderRepo.GetOrderByCorrelationID(ctx, draft.CorrelationID)
			if getErr != nil {
				return nil, false, fmt.Errorf("load duplicate order: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID),
		zap.String("correlation_id", order.CorrelationID.String()),
		zap.String("total", order.TotalAmount.String()))

	s.publishOrderCreated(ctx, order)
	return order, true, nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *domain.OrderAggregate) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewCheckoutEvent(events.ServiceOrder, events.OrderCreatedEvent,
		order.ID, order.CorrelationID, order.UserID, events.OrderCreatedPayload{Order: *order.Order})
	if err != nil {
		s.logger.Error("build order created event failed", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// The order stands; downstream consumers catch up from the API.
		s.logger.Warn("order created event publish failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.OrderAggregate, error) {
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID string) ([]*domain.OrderAggregate, error) {
	orders, err := s.orderRepo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CancelOrder withdraws a pending order.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.OrderAggregate, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.logger.Info("order cancelled", zap.String("order_id", order.ID.String()), zap.String("reason", reason))
	return order, nil
}

// ProcessPaymentEvent applies a checkout payment outcome to its order.
// Redelivered outcomes are no-ops; an outcome that contradicts a settled
// order is logged and dropped.
func (s *OrderService) ProcessPaymentEvent(ctx context.Context, event events.CheckoutEvent) error {
	var payload events.PaymentOutcomePayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	outcome := payload.Outcome

	orderID := outcome.OrderID
	if orderID == uuid.Nil {
		orderID = event.OrderID
	}
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}

	var changed bool
	switch event.EventType {
	case events.PaymentSucceededEvent:
		changed, err = order.MarkPaid(outcome.PaymentID)
	case events.PaymentFailedEvent:
		changed, err = order.MarkFailed(outcome.Reason)
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType)
	}
	if errors.Is(err, domain.ErrInvalidTransition) {
		s.logger.Warn("payment outcome ignored",
			zap.String("order_id", order.ID.String()),
			zap.String("event_type", string(event.EventType)),
			zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	s.logger.Info("order settled",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)))
	return nil
}
