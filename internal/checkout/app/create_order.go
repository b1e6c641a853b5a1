package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/catalog"
	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

// PaymentMethod identifies how the shopper chose to pay.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// GatewayResult is the only part of the payment-gateway exchange this engine
// consumes: success, pending, or neither, plus the transaction id.
type GatewayResult struct {
	Success       bool
	Pending       bool
	TransactionID string
}

// CreateOrderItem is one line of the submitted cart. ClientPrice is what the
// shopper's client claims the unit price is — it is never trusted, only
// compared against the catalog for monitoring.
type CreateOrderItem struct {
	ProductID   string
	ClientPrice decimal.Decimal
	Quantity    int
	Snapshot    domain.ProductSnapshot
}

// CreateOrderInput is the checkout submission.
type CreateOrderInput struct {
	SessionID        string
	UserID           string
	Currency         string
	Items            []CreateOrderItem
	ShippingAddress  domain.Address
	BillingAddress   domain.Address
	ShippingMethodID string
	PaymentMethod    PaymentMethod
	Payment          GatewayResult
}

// CreateOrderResult is returned to the transport layer on success.
type CreateOrderResult struct {
	OrderID       string
	OrderNumber   string
	Total         domain.Money
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	CreatedAt     time.Time
	// DiscrepancyDetected is set when any client-asserted price differed
	// from the catalog price by more than one minor unit. The order still
	// proceeds on the server price; the flag is a monitoring signal, not
	// an error.
	DiscrepancyDetected bool
}

// CreateOrderUseCase builds and persists an order from a checkout
// submission. Prices are always re-read from the catalog; the client's
// asserted prices only feed the discrepancy flag.
type CreateOrderUseCase struct {
	orders   order.Repository
	products catalog.Repository
	shipping ShippingPolicy
	tax      TaxPolicy
	now      func() time.Time
}

func NewCreateOrderUseCase(orders order.Repository, products catalog.Repository, shipping ShippingPolicy, tax TaxPolicy) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orders:   orders,
		products: products,
		shipping: shipping,
		tax:      tax,
		now:      time.Now,
	}
}

// WithClock injects the clock for deterministic tests.
func (uc *CreateOrderUseCase) WithClock(now func() time.Time) *CreateOrderUseCase {
	uc.now = now
	return uc
}

// priceTolerance is one minor unit: client and server prices within a cent
// of each other are considered equal.
var priceTolerance = decimal.New(1, -2)

// Execute runs the checkout submission end to end: validation, authoritative
// re-pricing, shipping and tax policies, status determination and atomic
// persistence. A retried submission for a session that already has a live
// order replays that order instead of creating a duplicate.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := uc.validate(in); err != nil {
		return nil, err
	}

	items, discrepancy, err := uc.reprice(ctx, in)
	if err != nil {
		return nil, err
	}

	subtotal := domain.Zero(in.Currency)
	for _, item := range items {
		subtotal, err = subtotal.Add(item.Subtotal())
		if err != nil {
			return nil, err
		}
	}

	shippingCost := uc.shipping.Cost(in.ShippingMethodID, subtotal)
	tax := uc.tax.Tax(subtotal, in.ShippingAddress)

	// Total is rounded once, here, not per intermediate operation.
	total, err := subtotal.Add(shippingCost)
	if err != nil {
		return nil, err
	}
	if total, err = total.Add(tax); err != nil {
		return nil, err
	}
	total = total.Round()

	o, err := domain.NewOrder(in.UserID, in.SessionID, items, in.ShippingAddress, in.BillingAddress, shippingCost.Round(), tax.Round(), total, uc.now())
	if err != nil {
		return nil, err
	}

	paymentStatus := resolvePaymentStatus(in.PaymentMethod, in.Payment)
	if paymentStatus == domain.PaymentPaid {
		if err := o.ConfirmPayment(in.Payment.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := uc.orders.Create(ctx, o); err != nil {
		if errors.Is(err, order.ErrDuplicateSession) {
			return uc.replay(ctx, in.SessionID)
		}
		return nil, fmt.Errorf("checkout: persist order: %w", err)
	}

	if discrepancy {
		slog.WarnContext(ctx, "price discrepancy detected",
			"order_number", o.OrderNumber,
			"session_id", in.SessionID,
		)
	}
	slog.InfoContext(ctx, "order created",
		"order_number", o.OrderNumber,
		"total", o.Total.Format(),
		"status", o.Status,
		"payment_status", o.PaymentStatus,
	)

	return &CreateOrderResult{
		OrderID:             o.ID.String(),
		OrderNumber:         o.OrderNumber,
		Total:               o.Total,
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		CreatedAt:           o.CreatedAt,
		DiscrepancyDetected: discrepancy,
	}, nil
}

// validate checks the request shape. Every violation is collected so the
// client sees the full list at once. No side effects happen on failure.
func (uc *CreateOrderUseCase) validate(in CreateOrderInput) error {
	var fields []FieldError

	if in.SessionID == "" {
		fields = append(fields, FieldError{Field: "session_id", Message: "is required"})
	}
	if len(in.Items) == 0 {
		fields = append(fields, FieldError{Field: "items", Message: "at least one item is required"})
	}
	for i, item := range in.Items {
		if item.ProductID == "" {
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].product_id", i), Message: "is required"})
		}
		if item.Quantity <= 0 {
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be a positive integer"})
		}
	}
	if !in.ShippingAddress.IsValid() {
		fields = append(fields, FieldError{Field: "shipping_address", Message: "is incomplete"})
	}
	if in.Currency == "" {
		fields = append(fields, FieldError{Field: "currency", Message: "is required"})
	}
	switch in.PaymentMethod {
	case PaymentMethodCard, PaymentMethodWallet:
		if !in.Payment.Success && !in.Payment.Pending {
			fields = append(fields, FieldError{Field: "payment", Message: "gateway did not report success"})
		}
	case PaymentMethodCashOnDelivery:
		// Pay on delivery needs no gateway result.
	default:
		fields = append(fields, FieldError{Field: "payment_method", Message: "is not supported"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// reprice replaces every client-asserted price with the catalog's current
// price. A missing or inactive product fails the whole order; a price
// mismatch beyond one minor unit only raises the discrepancy flag.
func (uc *CreateOrderUseCase) reprice(ctx context.Context, in CreateOrderInput) ([]domain.OrderItem, bool, error) {
	ids := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := uc.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("checkout: load products: %w", err)
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []domain.OrderItem
	discrepancy := false
	for _, reqItem := range in.Items {
		product, ok := byID[reqItem.ProductID]
		if !ok {
			return nil, false, &ProductUnavailableError{ProductID: reqItem.ProductID, Reason: "not found"}
		}
		if !product.IsActive {
			return nil, false, &ProductUnavailableError{ProductID: reqItem.ProductID, Reason: "inactive"}
		}

		if product.Price.Amount().Sub(reqItem.ClientPrice).Abs().GreaterThan(priceTolerance) {
			discrepancy = true
		}

		snapshot := reqItem.Snapshot
		if snapshot == (domain.ProductSnapshot{}) {
			snapshot = domain.ProductSnapshot{Name: product.Name, SKU: product.SKU, ImageURL: product.ImageURL}
		}

		item, err := domain.NewOrderItem(reqItem.ProductID, snapshot, reqItem.Quantity, product.Price)
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
	}
	return items, discrepancy, nil
}

// replay returns the order already created for this session, making a
// retried submission idempotent.
func (uc *CreateOrderUseCase) replay(ctx context.Context, sessionID string) (*CreateOrderResult, error) {
	existing, err := uc.orders.FindActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load existing order for session: %w", err)
	}
	if existing == nil {
		// The duplicate raced to a terminal state between the failed
		// insert and this lookup. Surface the conflict to the caller.
		return nil, order.ErrDuplicateSession
	}

	slog.InfoContext(ctx, "replaying order for retried submission",
		"order_number", existing.OrderNumber,
		"session_id", sessionID,
	)
	return &CreateOrderResult{
		OrderID:       existing.ID.String(),
		OrderNumber:   existing.OrderNumber,
		Total:         existing.Total,
		Status:        existing.Status,
		PaymentStatus: existing.PaymentStatus,
		CreatedAt:     existing.CreatedAt,
	}, nil
}

// resolvePaymentStatus applies the payment-method × gateway-result matrix.
// Pay on delivery is pending regardless of the gateway; card and wallet are
// paid on gateway success and pending on gateway-pending. Anything else was
// already rejected by validation.
func resolvePaymentStatus(method PaymentMethod, result GatewayResult) domain.PaymentStatus {
	if method == PaymentMethodCashOnDelivery {
		return domain.PaymentPending
	}
	if result.Success {
		return domain.PaymentPaid
	}
	return domain.PaymentPending
}
