package custom_error

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError is a precondition failure detected before any write.
// Handlers map it to a 400 response.
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError rejects an outgoing operation asking for more than
// the asset has on hand.
type InsufficientStockError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s",
		e.Requested.String(), e.Available.String())
}

// ExcessiveReturnError rejects a return of more than is still checked out.
type ExcessiveReturnError struct {
	Requested   decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *ExcessiveReturnError) Error() string {
	return fmt.Sprintf("return exceeds outstanding quantity: requested %s, outstanding %s",
		e.Requested.String(), e.Outstanding.String())
}

// NotFoundError marks a missing asset/allocation/note row. Handlers map it
// to a 404 response.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsValidation reports whether err belongs to the validation family, i.e.
// the operation was rejected before touching the store.
func IsValidation(err error) bool {
	var validation *ValidationError
	var insufficient *InsufficientStockError
	var excessive *ExcessiveReturnError
	return errors.As(err, &validation) || errors.As(err, &insufficient) || errors.As(err, &excessive)
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
