package common

import "fmt"

// ValidationError reports malformed or business-rule-violating input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing customer, product, or order.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func NewNotFoundError(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the product and the shortfall.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	SKU         string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (sku %s): requested %d, available %d",
		e.ProductName, e.SKU, e.Requested, e.Available)
}

// TransitionError reports an illegal order status edge.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition %s -> %s", e.From, e.To)
}

// InvalidStateError reports an operation attempted in the wrong state,
// such as deleting a non-pending order.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string {
	return e.Msg
}

// CapacityError reports a fatal capacity limit such as order-number
// sequence exhaustion.
type CapacityError struct {
	Msg string
}

func (e *CapacityError) Error() string {
	return e.Msg
}

// ConflictError reports unresolved write contention after retries.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}
