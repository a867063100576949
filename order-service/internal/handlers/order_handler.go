package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/domain"
	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/repository"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/events"
	sharedHTTP "github.com/chiragjeevanani/quickcomm-sub000/shared-domain/http"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/messaging"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, draft types.OrderDraft) (*domain.OrderAggregate, bool, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.OrderAggregate, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]*domain.OrderAggregate, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.OrderAggregate, error)
	ProcessPaymentEvent(ctx context.Context, event events.CheckoutEvent) error
}

type OrderHandler struct {
	orderService OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

func (h *OrderHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/health", h.HealthCheck)

	orders := api.Group("/orders")
	orders.Post("/", h.CreateOrder)
	orders.Get("/:id", h.GetOrderByID)
	orders.Post("/:id/cancel", h.CancelOrder)

	users := api.Group("/users")
	users.Get("/:user_id/orders", h.GetOrdersByUserID)
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var draft types.OrderDraft
	if err := c.BodyParser(&draft); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	order, created, err := h.orderService.CreateOrder(c.UserContext(), draft)
	switch {
	case errors.Is(err, domain.ErrInvalidDraft), errors.Is(err, domain.ErrTotalMismatch):
		return sharedHTTP.ValidationErrorResponse(c, "Order draft rejected", map[string]interface{}{
			"reason": err.Error(),
		})
	case err != nil:
		h.logger.Error("order creation failed", zap.Error(err))
		return sharedHTTP.InternalServerErrorResponse(c, "Order creation failed", nil)
	}

	if !created {
		return sharedHTTP.SuccessResponse(c, "Order already exists", mapOrder(order))
	}
	return sharedHTTP.CreatedResponse(c, "Order created successfully", mapOrder(order))
}

func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	orderID, ok := parseOrderID(c)
	if !ok {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}

	order, err := h.orderService.GetOrderByID(c.UserContext(), orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return sharedHTTP.NotFoundResponse(c, "Order not found")
	}
	if err != nil {
		h.logger.Error("order lookup failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return sharedHTTP.InternalServerErrorResponse(c, "Order retrieval failed", nil)
	}
	return sharedHTTP.SuccessResponse(c, "Order retrieved successfully", mapOrder(order))
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	orderID, ok := parseOrderID(c)
	if !ok {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", map[string]interface{}{
			"order_id": c.Params("id"),
		})
	}
	var req CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return sharedHTTP.BadRequestResponse(c, "Invalid request body", nil)
		}
	}
	if req.Reason == "" {
		req.Reason = "cancelled"
	}

	order, err := h.orderService.CancelOrder(c.UserContext(), orderID, req.Reason)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return sharedHTTP.NotFoundResponse(c, "Order not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		return sharedHTTP.ConflictResponse(c, "Order can no longer be cancelled", nil)
	case err != nil:
		h.logger.Error("order cancel failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return sharedHTTP.InternalServerErrorResponse(c, "Order cancellation failed", nil)
	}
	return sharedHTTP.SuccessResponse(c, "Order cancelled", mapOrder(order))
}

func (h *OrderHandler) GetOrdersByUserID(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	page := 1
	limit := 10
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	orders, err := h.orderService.GetOrdersByUserID(c.UserContext(), userID)
	if err != nil {
		h.logger.Error("orders retrieval failed", zap.String("user_id", userID), zap.Error(err))
		return sharedHTTP.InternalServerErrorResponse(c, "Orders retrieval failed", nil)
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(orders) {
		start = len(orders)
	}
	if end > len(orders) {
		end = len(orders)
	}

	responses := make([]OrderResponse, 0, end-start)
	for _, order := range orders[start:end] {
		responses = append(responses, mapOrder(order))
	}

	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", OrderListResponse{
		Orders: responses,
		Pagination: PaginationResponse{
			Page:    page,
			Limit:   limit,
			Total:   len(orders),
			HasMore: end < len(orders),
		},
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Order service is healthy", map[string]interface{}{
		"service": "order-service",
		"status":  "healthy",
	})
}

// StartConsuming subscribes to checkout payment outcomes.
func (h *OrderHandler) StartConsuming(consumer *messaging.Consumer) error {
	routingKeys := []string{
		messaging.RoutingKey(events.ServiceCheckout, events.PaymentSucceededEvent),
		messaging.RoutingKey(events.ServiceCheckout, events.PaymentFailedEvent),
	}
	return consumer.ConsumeEvents(routingKeys, h.HandleCheckoutEvent)
}

func (h *OrderHandler) HandleCheckoutEvent(ctx context.Context, event events.CheckoutEvent) error {
	h.logger.Info("checkout event received",
		zap.String("event_type", string(event.EventType)),
		zap.String("order_id", event.OrderID.String()))
	return h.orderService.ProcessPaymentEvent(ctx, event)
}

func parseOrderID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}
