// Package memory provides an in-memory order.Repository for tests and local
// development without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

// Repository stores orders in a mutex-guarded map.
type Repository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

var _ order.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{orders: make(map[uuid.UUID]*domain.Order)}
}

// Create stores a copy of the order. Holding the lock across the duplicate
// check and the insert gives the same atomicity as a database transaction.
func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.SessionID == o.SessionID && !existing.Status.IsTerminal() {
			return order.ErrDuplicateSession
		}
	}

	r.orders[o.ID] = clone(o)
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, nil // not found
	}
	return clone(o), nil
}

func (r *Repository) FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.OrderNumber == number {
			return clone(o), nil
		}
	}
	return nil, nil
}

func (r *Repository) FindActiveBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.SessionID == sessionID && !o.Status.IsTerminal() {
			return clone(o), nil
		}
	}
	return nil, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID string, page order.Page) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	// Newest first; tie-break on id for a stable ordering across pages.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	limit := page.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]domain.Order, 0, end-offset)
	for _, o := range matched[offset:end] {
		out = append(out, *clone(o))
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.PaymentStatus = status
	if transactionID != "" {
		o.PaymentIntentID = transactionID
	}
	return nil
}

// clone copies the order so callers never alias the stored aggregate.
func clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = make([]domain.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
