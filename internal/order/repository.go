// Package order defines the persistence port for the Order aggregate.
//
// The checkout use case depends on this abstraction, not on a concrete
// database, so the implementation can be swapped between SQLite (embedded),
// Postgres (production) and an in-memory map (tests).
package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

// ErrNotFound is returned by the update operations when no order matches.
// Lookup methods signal absence with a nil order and nil error instead, so
// callers can branch without exception-driven control flow.
var ErrNotFound = errors.New("order: not found")

// ErrDuplicateSession is returned by Create when the checkout session already
// has a non-terminal order. The use case treats it as an idempotent retry and
// replays the original order instead of creating a duplicate.
var ErrDuplicateSession = errors.New("order: session already has an active order")

// Page bounds a paginated listing.
type Page struct {
	Limit  int
	Offset int
}

// Repository persists orders atomically with their items. A partial write —
// a header without its items — must never be observable.
type Repository interface {
	// Create persists the order and all of its items in one atomic
	// operation. It fails with ErrDuplicateSession when a non-terminal
	// order already exists for order.SessionID.
	Create(ctx context.Context, order *domain.Order) error

	// FindByID returns (nil, nil) when no order has the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)

	// FindByOrderNumber returns (nil, nil) when no order has the given
	// customer-facing number.
	FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error)

	// FindByUserID lists a user's orders newest-first with a stable
	// ordering across pages.
	FindByUserID(ctx context.Context, userID string, page Page) ([]domain.Order, error)

	// FindActiveBySession returns the non-terminal order for a checkout
	// session, or (nil, nil) when there is none.
	FindActiveBySession(ctx context.Context, sessionID string) (*domain.Order, error)

	// UpdateStatus sets the fulfillment status. Fails with ErrNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error

	// UpdatePaymentStatus sets the payment status and, when transactionID
	// is non-empty, the payment intent id. Fails with ErrNotFound.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID string) error
}
