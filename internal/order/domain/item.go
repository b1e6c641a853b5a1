package domain

// ProductSnapshot is an immutable copy of the product display data at
// purchase time. It is captured once at item construction and never re-read
// from the catalog, so the order always shows what the shopper saw even if
// the catalog record changes or is deleted later.
type ProductSnapshot struct {
	Name     string
	SKU      string
	ImageURL string
}

// OrderItem is a single line of an order. Items are owned exclusively by
// their order; no item is shared across orders.
type OrderItem struct {
	ProductID string
	Snapshot  ProductSnapshot
	Quantity  int
	UnitPrice Money
}

// NewOrderItem validates the quantity and builds a line item.
func NewOrderItem(productID string, snapshot ProductSnapshot, quantity int, unitPrice Money) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	return OrderItem{
		ProductID: productID,
		Snapshot:  snapshot,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Subtotal is unit price times quantity, unrounded. Rounding happens once at
// order-total computation.
func (i OrderItem) Subtotal() Money {
	return i.UnitPrice.MultiplyInt(i.Quantity)
}
