package service

import (
	"errors"
	"fmt"
	"strings"

	"shop-api/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrOrderCreationFailed = errors.New("could not allocate an order number")
	ErrInvalidStatus       = errors.New("unknown order status")
	ErrInvalidTransition   = errors.New("order status transition not allowed")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrProductInactive     = errors.New("product is not on sale")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrSKUExists           = errors.New("SKU already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserInactive        = errors.New("user account is suspended")
	ErrUserNotFound        = errors.New("user not found")
)

// StockError names the product that could not cover the requested quantity.
type StockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError carries the failed fields of a request body.
type ValidationError struct {
	Fields []*validator.ErrorResponse
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.FailedField, f.Tag))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// validate runs the struct validator and wraps any failures.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
