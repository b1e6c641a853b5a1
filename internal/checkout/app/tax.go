package app

import "github.com/jcmexdev/checkout-engine/internal/order/domain"

// TaxPolicy computes the tax owed on an order. The tax regime depends on the
// deployment's jurisdiction and is deliberately pluggable.
type TaxPolicy interface {
	Tax(taxable domain.Money, shipping domain.Address) domain.Money
}

// ZeroTaxPolicy is the reference implementation: it charges no tax. It is an
// explicit placeholder, not a statement about any jurisdiction; deployments
// swap in a real policy.
type ZeroTaxPolicy struct{}

var _ TaxPolicy = ZeroTaxPolicy{}

func (ZeroTaxPolicy) Tax(taxable domain.Money, _ domain.Address) domain.Money {
	return domain.Zero(taxable.Currency())
}
