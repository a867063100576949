package lifecycle

import (
	"errors"
	"fmt"
)

var (
	ErrOrderInProgress   = errors.New("an order is already being placed")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrProfileIncomplete = errors.New("profile must be completed before ordering")
	ErrIllegalTransition = errors.New("illegal lifecycle transition")
	ErrUnknownAttempt    = errors.New("callback does not match the current attempt")
)

// ValidationError is an unmet local precondition. Field names the input the
// customer has to correct.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
