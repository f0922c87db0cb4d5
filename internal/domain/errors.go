package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrDuplicate          = errors.New("already exists")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrCartNotActive      = errors.New("cart is not active")
)

// ValidationError reports a single field that failed a precondition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}

// Fields flattens err into field-level details when it carries any.
func Fields(err error) []ValidationError {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return []ValidationError{*one}
	}
	return nil
}
