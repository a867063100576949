package checkout

import (
	"errors"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
)

var (
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrPaymentInProgress = errors.New("a payment is in progress")
	ErrUnknownOrder      = errors.New("unknown order")
	ErrUnknownAddress    = errors.New("address not found")
	ErrUnknownItem       = errors.New("cart item not found")
)

// ValidationError names the input the customer has to correct.
type ValidationError = lifecycle.ValidationError

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
