// Package catalog defines the port to the product catalog. The catalog
// itself (storage, search, localization) lives outside this engine; checkout
// only needs authoritative prices and availability.
package catalog

import (
	"context"

	"github.com/jcmexdev/checkout-engine/internal/order/domain"
)

// Product is the slice of catalog data checkout cares about.
type Product struct {
	ID            string
	Name          string
	SKU           string
	ImageURL      string
	Price         domain.Money
	IsActive      bool
	StockQuantity int
}

// Repository is implemented by the storefront's catalog service.
type Repository interface {
	// FindByIDs returns the products it could resolve; ids with no match
	// are simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
}
