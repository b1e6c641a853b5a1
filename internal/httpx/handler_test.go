package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
	"github.com/jcmexdev/checkout-engine/internal/order/memory"
)

// flakyStatusRepo fails fulfillment-status writes while letting everything
// else through, to observe what a partially failed transition leaves behind.
type flakyStatusRepo struct {
	order.Repository
	failUpdateStatus bool
}

func (r *flakyStatusRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if r.failUpdateStatus {
		return errors.New("store unavailable")
	}
	return r.Repository.UpdateStatus(ctx, id, status)
}

func storedOrder(t *testing.T, repo order.Repository) *domain.Order {
	t.Helper()

	addr := domain.Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "Turin",
		PostalCode: "10100",
		Country:    "IT",
	}
	price, err := domain.NewMoneyFromString("25.00", "EUR")
	require.NoError(t, err)
	item, err := domain.NewOrderItem("prod-001", domain.ProductSnapshot{Name: "Espresso Cups"}, 1, price)
	require.NoError(t, err)

	fee, err := domain.NewMoneyFromString("5.99", "EUR")
	require.NoError(t, err)
	total, err := domain.NewMoneyFromString("30.99", "EUR")
	require.NoError(t, err)

	o, err := domain.NewOrder("user-1", "sess-1", []domain.OrderItem{item},
		addr, addr, fee, domain.Zero("EUR"), total, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func postPayment(h *Handler, orderID uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/payment",
		strings.NewReader(`{"transaction_id":"txn-9"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.ConfirmPayment(rec, req)
	return rec
}

func TestConfirmPaymentPersistsBothAxes(t *testing.T) {
	repo := memory.NewRepository()
	o := storedOrder(t, repo)
	h := NewHandler(nil, repo, nil)

	rec := postPayment(h, o.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "txn-9", got.PaymentIntentID)
	assert.Equal(t, domain.OrderProcessing, got.Status)
}

func TestConfirmPaymentKeepsPaymentWhenStatusWriteFails(t *testing.T) {
	mem := memory.NewRepository()
	o := storedOrder(t, mem)
	repo := &flakyStatusRepo{Repository: mem, failUpdateStatus: true}
	h := NewHandler(nil, repo, nil)

	rec := postPayment(h, o.ID)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The payment write lands before the fulfillment write, so the store
	// holds a paid PENDING order that a retried event converges.
	got, err := mem.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "txn-9", got.PaymentIntentID)
	assert.Equal(t, domain.OrderPending, got.Status)

	// A retry after the store recovers completes the transition.
	repo.failUpdateStatus = false
	rec = postPayment(h, o.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err = mem.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, got.Status)
}
