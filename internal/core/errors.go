package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrDuplicateMovement is returned when a stock movement's idempotency key
// has already been recorded. The original movement stands; the replay is a
// no-op.
var ErrDuplicateMovement = errors.New("movement with this idempotency key already recorded")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
}

// InsufficientStockError is returned when a sale would drive a product's
// stock negative under the reject policy.
type InsufficientStockError struct {
	ProductID int
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %s available, %s requested",
		e.ProductID, e.Available, e.Requested)
}

// OverpaymentError is returned when a payment exceeds the invoice balance
// by more than the rounding tolerance.
type OverpaymentError struct {
	InvoiceNumber string
	Balance       decimal.Decimal
	Attempted     decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds balance %s on invoice %s",
		e.Attempted, e.Balance, e.InvoiceNumber)
}

// NotFoundError reports a missing record by kind and the reference used to
// look it up.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

// PersistenceError wraps a database failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func notFound(kind, ref string) error {
	return &NotFoundError{Kind: kind, Ref: ref}
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
