package app

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

// ShippingPolicy computes the shipping cost for a chosen method given the
// server-computed subtotal.
type ShippingPolicy interface {
	Cost(methodID string, subtotal domain.Money) domain.Money
}

// Shipping method ids as submitted by the storefront.
const (
	ShippingStandard  = "standard"
	ShippingExpedited = "expedited"
	ShippingFree      = "free"
)

// StandardShippingPolicy is the storefront's flat-fee table: a fixed fee for
// expedited service, zero for the free tier once the subtotal meets the
// threshold, and a flat standard fee otherwise.
type StandardShippingPolicy struct {
	StandardFee   decimal.Decimal
	ExpeditedFee  decimal.Decimal
	FreeThreshold decimal.Decimal
}

var _ ShippingPolicy = (*StandardShippingPolicy)(nil)

// NewStandardShippingPolicy uses the storefront defaults: 5.99 standard,
// 14.99 expedited, free shipping from 50.00 up.
func NewStandardShippingPolicy() *StandardShippingPolicy {
	return &StandardShippingPolicy{
		StandardFee:   decimal.RequireFromString("5.99"),
		ExpeditedFee:  decimal.RequireFromString("14.99"),
		FreeThreshold: decimal.RequireFromString("50.00"),
	}
}

func (p *StandardShippingPolicy) Cost(methodID string, subtotal domain.Money) domain.Money {
	currency := subtotal.Currency()
	switch methodID {
	case ShippingExpedited:
		return mustMoney(p.ExpeditedFee, currency)
	case ShippingFree:
		if subtotal.Amount().GreaterThanOrEqual(p.FreeThreshold) {
			return domain.Zero(currency)
		}
		return mustMoney(p.StandardFee, currency)
	default:
		return mustMoney(p.StandardFee, currency)
	}
}

func mustMoney(amount decimal.Decimal, currency string) domain.Money {
	m, _ := domain.NewMoney(amount, currency)
	return m
}
