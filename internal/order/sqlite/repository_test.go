package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func money(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, "EUR")
	require.NoError(t, err)
	return m
}

func buildOrder(t *testing.T, userID, sessionID string) *domain.Order {
	t.Helper()

	addr := domain.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "Turin",
		PostalCode: "10100",
		Country:    "IT",
	}
	item, err := domain.NewOrderItem("prod-001",
		domain.ProductSnapshot{Name: "Espresso Cups", SKU: "CUP-6", ImageURL: "https://cdn.example/cups.png"},
		2, money(t, "25.00"))
	require.NoError(t, err)

	o, err := domain.NewOrder(userID, sessionID, []domain.OrderItem{item},
		addr, addr, money(t, "5.99"), money(t, "0.00"), money(t, "55.99"), time.Now().UTC())
	require.NoError(t, err)
	return o
}

func TestCreateAndFindRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	o := buildOrder(t, "user-1", "sess-1")
	require.NoError(t, repo.Create(ctx, o))

	for name, find := range map[string]func() (*domain.Order, error){
		"by id":     func() (*domain.Order, error) { return repo.FindByID(ctx, o.ID) },
		"by number": func() (*domain.Order, error) { return repo.FindByOrderNumber(ctx, o.OrderNumber) },
	} {
		t.Run(name, func(t *testing.T) {
			got, err := find()
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, o.ID, got.ID)
			assert.Equal(t, o.OrderNumber, got.OrderNumber)
			assert.Equal(t, "user-1", got.UserID)
			assert.Equal(t, "sess-1", got.SessionID)
			assert.Equal(t, domain.OrderPending, got.Status)
			assert.Equal(t, domain.PaymentPending, got.PaymentStatus)
			assert.Equal(t, "55.99 EUR", got.Total.Format())
			assert.Equal(t, "5.99 EUR", got.ShippingCost.Format())
			assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
			assert.WithinDuration(t, o.CreatedAt, got.CreatedAt, time.Second)

			require.Len(t, got.Items, 1)
			assert.Equal(t, "prod-001", got.Items[0].ProductID)
			assert.Equal(t, "Espresso Cups", got.Items[0].Snapshot.Name)
			assert.Equal(t, "CUP-6", got.Items[0].Snapshot.SKU)
			assert.Equal(t, 2, got.Items[0].Quantity)
			assert.Equal(t, "25.00 EUR", got.Items[0].UnitPrice.Format())
		})
	}
}

func TestFindMissingReturnsNilNil(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	got, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindByOrderNumber(ctx, "ORD-0-XXXXXXXX")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindActiveBySession(ctx, "sess-none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateRejectsSecondActiveOrderForSession(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, buildOrder(t, "user-1", "sess-dup")))

	err := repo.Create(ctx, buildOrder(t, "user-1", "sess-dup"))
	require.ErrorIs(t, err, order.ErrDuplicateSession)
}

func TestSessionFreedAfterTerminalStatus(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := buildOrder(t, "user-1", "sess-2")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, domain.OrderCancelled))

	// The cancelled order no longer occupies the session.
	active, err := repo.FindActiveBySession(ctx, "sess-2")
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, repo.Create(ctx, buildOrder(t, "user-1", "sess-2")))
}

func TestFindActiveBySession(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	o := buildOrder(t, "user-1", "sess-3")
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.FindActiveBySession(ctx, "sess-3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.ID, got.ID)
	require.Len(t, got.Items, 1)
}

func TestUpdateStatus(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	o := buildOrder(t, "user-1", "sess-4")
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, domain.OrderProcessing))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.OrderProcessing, got.Status)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt.Truncate(time.Second)))

	err = repo.UpdateStatus(ctx, uuid.New(), domain.OrderProcessing)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestUpdatePaymentStatus(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	o := buildOrder(t, "user-1", "sess-5")
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.UpdatePaymentStatus(ctx, o.ID, domain.PaymentPaid, "txn-abc"))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "txn-abc", got.PaymentIntentID)

	// An empty transaction id keeps the stored intent.
	require.NoError(t, repo.UpdatePaymentStatus(ctx, o.ID, domain.PaymentRefunded, ""))

	got, err = repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, "txn-abc", got.PaymentIntentID)

	err = repo.UpdatePaymentStatus(ctx, uuid.New(), domain.PaymentPaid, "txn-x")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestFindByUserIDPagination(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		o := buildOrder(t, "user-list", uuid.NewString())
		// Terminal status keeps the unique active-session index out of play
		// and exercises listing across statuses.
		require.NoError(t, repo.Create(ctx, o))
		require.NoError(t, repo.UpdateStatus(ctx, o.ID, domain.OrderDelivered))
	}
	require.NoError(t, repo.Create(ctx, buildOrder(t, "someone-else", "sess-other")))

	first, err := repo.FindByUserID(ctx, "user-list", order.Page{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, o := range first {
		assert.Equal(t, "user-list", o.UserID)
		require.Len(t, o.Items, 1)
	}

	second, err := repo.FindByUserID(ctx, "user-list", order.Page{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, second, 2)

	// No overlap between pages.
	seen := map[uuid.UUID]bool{}
	for _, o := range append(first, second...) {
		assert.False(t, seen[o.ID], "order %s appeared twice", o.ID)
		seen[o.ID] = true
	}

	none, err := repo.FindByUserID(ctx, "user-unknown", order.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, none)

	// A negative offset from an unparsed query param is treated as zero.
	clamped, err := repo.FindByUserID(ctx, "user-list", order.Page{Limit: 10, Offset: -1})
	require.NoError(t, err)
	assert.Len(t, clamped, 5)
}
