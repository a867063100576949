package handlers

import (
	"context"
	"strings"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/checkout"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	sharedHTTP "github.com/chiragjeevanani/quickcomm-sub000/shared-domain/http"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const userHeader = "X-User-ID"

type CheckoutService interface {
	Open(ctx context.Context, userID string) (*checkout.View, error)
	View(ctx context.Context, userID string) (*checkout.View, error)
	Close(ctx context.Context, userID string) error
	SelectAddress(ctx context.Context, userID, addressID string) (*checkout.View, error)
	PinAddressLocation(ctx context.Context, userID, addressID string, at types.Coordinates, landmark *string) (*checkout.View, error)
	SetLiveLocation(ctx context.Context, userID string, at *types.Coordinates) (*checkout.View, error)
	ListCoupons(ctx context.Context, userID string) ([]types.Coupon, error)
	ApplyCoupon(ctx context.Context, userID, code string) (*checkout.View, error)
	RemoveCoupon(ctx context.Context, userID string) (*checkout.View, error)
	SelectPresetTip(ctx context.Context, userID string, amount decimal.Decimal) (*checkout.View, error)
	SetCustomTip(ctx context.Context, userID string, amount decimal.Decimal) (*checkout.View, error)
	ClearTip(ctx context.Context, userID string) (*checkout.View, error)
	SetGiftPackaging(ctx context.Context, userID string, enabled bool) (*checkout.View, error)
	SetGSTIN(ctx context.Context, userID, gstin string) (*checkout.View, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*checkout.View, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*checkout.View, error)
	CompleteProfile(ctx context.Context, userID string, update types.ProfileUpdate) (*checkout.View, error)
	PlaceOrder(ctx context.Context, userID string) (*checkout.View, error)
	CancelPayment(ctx context.Context, userID string) (*checkout.View, error)
	HandlePaymentCallback(ctx context.Context, cb gateway.Callback) error
}

type CheckoutHandler struct {
	service CheckoutService
	logger  *zap.Logger
}

func NewCheckoutHandler(service CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the checkout API under api.
func (h *CheckoutHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/health", h.HealthCheck)
	api.Post("/payments/callback", h.PaymentCallback)

	co := api.Group("/checkout", h.requireUser)
	co.Post("/session", h.OpenSession)
	co.Get("/session", h.GetSession)
	co.Delete("/session", h.CloseSession)

	co.Put("/address", h.SelectAddress)
	co.Put("/addresses/:id/location", h.PinAddressLocation)
	co.Put("/live-location", h.SetLiveLocation)
	co.Delete("/live-location", h.ClearLiveLocation)

	co.Get("/coupons", h.ListCoupons)
	co.Post("/coupon", h.ApplyCoupon)
	co.Delete("/coupon", h.RemoveCoupon)

	co.Put("/tip", h.SetTip)
	co.Delete("/tip", h.ClearTip)
	co.Put("/gift-packaging", h.SetGiftPackaging)
	co.Put("/gstin", h.SetGSTIN)

	co.Patch("/items/:item_id", h.UpdateQuantity)
	co.Delete("/items/:item_id", h.RemoveItem)

	co.Put("/profile", h.CompleteProfile)
	co.Post("/orders", h.PlaceOrder)
	co.Post("/payment/cancel", h.CancelPayment)
}

func (h *CheckoutHandler) requireUser(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get(userHeader))
	if userID == "" {
		return sharedHTTP.BadRequestResponse(c, "User ID header is required", map[string]interface{}{
			"header": userHeader,
		})
	}
	c.Locals("user_id", userID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func (h *CheckoutHandler) view(c *fiber.Ctx, message string, v *checkout.View, err error) error {
	if err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, message, v)
}

func (h *CheckoutHandler) OpenSession(c *fiber.Ctx) error {
	v, err := h.service.Open(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.CreatedResponse(c, "Checkout opened", v)
}

func (h *CheckoutHandler) GetSession(c *fiber.Ctx) error {
	v, err := h.service.View(c.UserContext(), userID(c))
	return h.view(c, "Checkout retrieved", v, err)
}

func (h *CheckoutHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.service.Close(c.UserContext(), userID(c)); err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Checkout closed", nil)
}

func (h *CheckoutHandler) SelectAddress(c *fiber.Ctx) error {
	var req SelectAddressRequest
	if err := c.BodyParser(&req); err != nil || req.AddressID == "" {
		return sharedHTTP.BadRequestResponse(c, "address_id is required", nil)
	}
	v, err := h.service.SelectAddress(c.UserContext(), userID(c), req.AddressID)
	return h.view(c, "Address selected", v, err)
}

func (h *CheckoutHandler) PinAddressLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	at, ok := req.coordinates()
	if !ok {
		return sharedHTTP.BadRequestResponse(c, "Valid latitude and longitude are required", nil)
	}
	v, err := h.service.PinAddressLocation(c.UserContext(), userID(c), c.Params("id"), at, req.Landmark)
	return h.view(c, "Address location saved", v, err)
}

func (h *CheckoutHandler) SetLiveLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	at, ok := req.coordinates()
	if !ok {
		return sharedHTTP.BadRequestResponse(c, "Valid latitude and longitude are required", nil)
	}
	v, err := h.service.SetLiveLocation(c.UserContext(), userID(c), &at)
	return h.view(c, "Location updated", v, err)
}

func (h *CheckoutHandler) ClearLiveLocation(c *fiber.Ctx) error {
	v, err := h.service.SetLiveLocation(c.UserContext(), userID(c), nil)
	return h.view(c, "Location cleared", v, err)
}

func (h *CheckoutHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.ListCoupons(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Coupons retrieved", coupons)
}

func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req ApplyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	v, err := h.service.ApplyCoupon(c.UserContext(), userID(c), req.Code)
	return h.view(c, "Coupon applied", v, err)
}

func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	v, err := h.service.RemoveCoupon(c.UserContext(), userID(c))
	return h.view(c, "Coupon removed", v, err)
}

func (h *CheckoutHandler) SetTip(c *fiber.Ctx) error {
	var req TipRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	var (
		v   *checkout.View
		err error
	)
	switch {
	case req.Preset != nil && req.Custom != nil:
		return sharedHTTP.BadRequestResponse(c, "Choose either a preset or a custom tip", nil)
	case req.Preset != nil:
		v, err = h.service.SelectPresetTip(c.UserContext(), userID(c), *req.Preset)
	case req.Custom != nil:
		v, err = h.service.SetCustomTip(c.UserContext(), userID(c), *req.Custom)
	default:
		return sharedHTTP.BadRequestResponse(c, "preset or custom is required", nil)
	}
	return h.view(c, "Tip updated", v, err)
}

func (h *CheckoutHandler) ClearTip(c *fiber.Ctx) error {
	v, err := h.service.ClearTip(c.UserContext(), userID(c))
	return h.view(c, "Tip removed", v, err)
}

func (h *CheckoutHandler) SetGiftPackaging(c *fiber.Ctx) error {
	var req GiftPackagingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	v, err := h.service.SetGiftPackaging(c.UserContext(), userID(c), req.Enabled)
	return h.view(c, "Gift packaging updated", v, err)
}

func (h *CheckoutHandler) SetGSTIN(c *fiber.Ctx) error {
	var req GSTINRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	v, err := h.service.SetGSTIN(c.UserContext(), userID(c), req.GSTIN)
	return h.view(c, "GSTIN updated", v, err)
}

func (h *CheckoutHandler) UpdateQuantity(c *fiber.Ctx) error {
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return sharedHTTP.BadRequestResponse(c, "quantity must be zero or more", nil)
	}
	v, err := h.service.UpdateQuantity(c.UserContext(), userID(c), c.Params("item_id"), *req.Quantity)
	return h.view(c, "Cart updated", v, err)
}

func (h *CheckoutHandler) RemoveItem(c *fiber.Ctx) error {
	v, err := h.service.RemoveItem(c.UserContext(), userID(c), c.Params("item_id"))
	return h.view(c, "Item removed", v, err)
}

func (h *CheckoutHandler) CompleteProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	v, err := h.service.CompleteProfile(c.UserContext(), userID(c), types.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	return h.view(c, "Profile updated", v, err)
}

func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	v, err := h.service.PlaceOrder(c.UserContext(), userID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.CreatedResponse(c, "Order placed, awaiting payment", v)
}

func (h *CheckoutHandler) CancelPayment(c *fiber.Ctx) error {
	v, err := h.service.CancelPayment(c.UserContext(), userID(c))
	return h.view(c, "Payment cancelled", v, err)
}

// PaymentCallback receives provider webhooks.
func (h *CheckoutHandler) PaymentCallback(c *fiber.Ctx) error {
	var cb gateway.Callback
	if err := c.BodyParser(&cb); err != nil {
		return invalidBody(c, err)
	}
	if cb.SessionID == "" && cb.OrderID == uuid.Nil {
		return sharedHTTP.BadRequestResponse(c, "session_id or order_id is required", nil)
	}
	if err := h.service.HandlePaymentCallback(c.UserContext(), cb); err != nil {
		return h.writeError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Callback accepted", nil)
}

func (h *CheckoutHandler) HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Checkout service is healthy", map[string]interface{}{
		"service": "checkout-service",
		"status":  "healthy",
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
		"parse_error": err.Error(),
	})
}
