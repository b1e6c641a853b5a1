package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment axis of the order lifecycle.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string { return string(s) }

// IsTerminal reports whether the order can no longer change on this axis.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// PaymentStatus is the payment axis of the order lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string { return string(s) }

// Order is the aggregate root of a placed order. It exclusively owns its
// items; shipping and billing addresses are value-copied in, never aliased.
// Orders are never deleted — cancellation is a status, not a removal.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	UserID          string
	SessionID       string
	Items           []OrderItem
	ShippingAddress Address
	BillingAddress  Address
	ShippingCost    Money
	Tax             Money
	Total           Money
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentIntentID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder builds an order in its initial state (PENDING / PENDING). The
// items slice must be non-empty; it is copied so the caller cannot alias the
// aggregate's internals.
func NewOrder(userID, sessionID string, items []OrderItem, shipping, billing Address, shippingCost, tax, total Money, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	owned := make([]OrderItem, len(items))
	copy(owned, items)

	return &Order{
		ID:              uuid.New(),
		OrderNumber:     GenerateOrderNumber(),
		UserID:          userID,
		SessionID:       sessionID,
		Items:           owned,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		ShippingCost:    shippingCost,
		Tax:             tax,
		Total:           total,
		Status:          OrderPending,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Subtotal sums the item subtotals without rounding.
func (o *Order) Subtotal() (Money, error) {
	sum := Zero(o.Total.Currency())
	for _, item := range o.Items {
		var err error
		sum, err = sum.Add(item.Subtotal())
		if err != nil {
			return Money{}, err
		}
	}
	return sum, nil
}

// ConfirmPayment records a successful charge. Allowed from any payment state
// except REFUNDED. A pending order advances to PROCESSING.
func (o *Order) ConfirmPayment(transactionID string) error {
	if o.PaymentStatus == PaymentRefunded {
		return &InvalidTransitionError{
			Event:         "confirm payment",
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			Reason:        "payment was refunded",
		}
	}
	o.PaymentStatus = PaymentPaid
	o.PaymentIntentID = transactionID
	if o.Status == OrderPending {
		o.Status = OrderProcessing
	}
	return nil
}

// MarkAsShipped moves the order to SHIPPED. Shipping an unpaid order is a
// caller bug.
func (o *Order) MarkAsShipped() error {
	if o.PaymentStatus != PaymentPaid {
		return &InvalidTransitionError{
			Event:         "ship",
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			Reason:        "order is not paid",
		}
	}
	o.Status = OrderShipped
	return nil
}

// MarkAsDelivered moves a shipped order to DELIVERED.
func (o *Order) MarkAsDelivered() error {
	if o.Status != OrderShipped {
		return &InvalidTransitionError{
			Event:  "deliver",
			Status: o.Status,
			Reason: fmt.Sprintf("order is %s, not shipped", o.Status),
		}
	}
	o.Status = OrderDelivered
	return nil
}

// CanBeCancelled reports whether cancellation is still possible. Shipped,
// delivered and already-cancelled orders are past the point of no return.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderPending || o.Status == OrderProcessing
}

// Cancel moves the order to CANCELLED if its guard allows it.
func (o *Order) Cancel() error {
	if !o.CanBeCancelled() {
		return &InvalidTransitionError{
			Event:  "cancel",
			Status: o.Status,
			Reason: fmt.Sprintf("order is %s", o.Status),
		}
	}
	o.Status = OrderCancelled
	return nil
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber produces a customer-facing order number of the form
// ORD-<unix-millis>-<8 random alnum>. The format is stable: it appears on
// confirmation pages, invoices and support tickets.
func GenerateOrderNumber() string {
	buf := make([]byte, 8)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), buf)
}
