package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

func money(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, "EUR")
	require.NoError(t, err)
	return m
}

func buildOrder(t *testing.T, userID, sessionID string, createdAt time.Time) *domain.Order {
	t.Helper()

	addr := domain.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "Turin",
		PostalCode: "10100",
		Country:    "IT",
	}
	item, err := domain.NewOrderItem("prod-001", domain.ProductSnapshot{Name: "Espresso Cups"}, 1, money(t, "25.00"))
	require.NoError(t, err)

	o, err := domain.NewOrder(userID, sessionID, []domain.OrderItem{item},
		addr, addr, money(t, "5.99"), money(t, "0.00"), money(t, "30.99"), createdAt)
	require.NoError(t, err)
	return o
}

func TestCreateRejectsActiveDuplicateSession(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	first := buildOrder(t, "user-1", "sess-1", time.Now())
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, buildOrder(t, "user-1", "sess-1", time.Now()))
	require.ErrorIs(t, err, order.ErrDuplicateSession)

	// A terminal order frees the session for a new checkout.
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, domain.OrderCancelled))
	require.NoError(t, repo.Create(ctx, buildOrder(t, "user-1", "sess-1", time.Now())))
}

func TestStoredOrderIsNotAliased(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	o := buildOrder(t, "user-1", "sess-1", time.Now())
	require.NoError(t, repo.Create(ctx, o))

	// Mutating the caller's copy after Create must not leak into the store.
	o.Status = domain.OrderCancelled
	o.Items[0].Quantity = 99

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.OrderPending, got.Status)
	assert.Equal(t, 1, got.Items[0].Quantity)

	// Nor must mutating a returned copy affect later reads.
	got.Items[0].Quantity = 42
	again, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestFindByUserIDNewestFirst(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		o := buildOrder(t, "user-1", uuid.NewString(), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, o))
		ids = append(ids, o.ID)
	}

	got, err := repo.FindByUserID(ctx, "user-1", order.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := range got {
		assert.Equal(t, ids[len(ids)-1-i], got[i].ID)
	}

	page, err := repo.FindByUserID(ctx, "user-1", order.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[0], page[1].ID)

	empty, err := repo.FindByUserID(ctx, "user-1", order.Page{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	// A negative offset from an unparsed query param is treated as zero.
	clamped, err := repo.FindByUserID(ctx, "user-1", order.Page{Limit: 10, Offset: -1})
	require.NoError(t, err)
	require.Len(t, clamped, 4)
	assert.Equal(t, ids[len(ids)-1], clamped[0].ID)
}

func TestUpdateMissingOrder(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, uuid.New(), domain.OrderProcessing)
	require.ErrorIs(t, err, order.ErrNotFound)

	err = repo.UpdatePaymentStatus(ctx, uuid.New(), domain.PaymentPaid, "txn-1")
	require.ErrorIs(t, err, order.ErrNotFound)
}
