package domain

import (
	"errors"
	"fmt"
)

// ErrNoItems is returned when an order would be built with zero line items.
var ErrNoItems = errors.New("order: must contain at least one item")

// ErrInvalidQuantity is returned when a line item quantity is not a positive
// integer.
var ErrInvalidQuantity = errors.New("order item: quantity must be a positive integer")

// CurrencyMismatchError signals arithmetic between two Money values of
// different currencies. It is an invariant violation in the caller, not a
// user-facing validation failure.
type CurrencyMismatchError struct {
	Left  string
	Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("money: currency mismatch: %s vs %s", e.Left, e.Right)
}

// InvalidTransitionError signals a lifecycle event fired from a state whose
// guard rejects it, e.g. shipping an unpaid order or cancelling a shipped one.
// It usually means a caller bug or a replayed stale request.
type InvalidTransitionError struct {
	Event  string
	Status OrderStatus
	// PaymentStatus is set when the guard is on the payment axis.
	PaymentStatus PaymentStatus
	Reason        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order: cannot %s: %s", e.Event, e.Reason)
}
