package httpx

import "github.com/jcmexdev/checkout-engine/internal/checkout/app"

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	CSRFToken string `json:"csrf_token"`
}

type AddressDTO struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Company    string `json:"company,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type SnapshotDTO struct {
	Name     string `json:"name"`
	SKU      string `json:"sku,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// CreateOrderItemDTO carries the client-asserted price as a decimal string.
// Quantity is an int on purpose: a fractional JSON quantity fails to decode
// and the request is rejected before any business logic runs.
type CreateOrderItemDTO struct {
	ProductID string      `json:"product_id"`
	Price     string      `json:"price"`
	Quantity  int         `json:"quantity"`
	Snapshot  SnapshotDTO `json:"snapshot"`
}

type PaymentResultDTO struct {
	Success       bool   `json:"success"`
	Pending       bool   `json:"pending,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type CreateOrderRequest struct {
	UserID          string               `json:"user_id,omitempty"`
	Currency        string               `json:"currency"`
	Items           []CreateOrderItemDTO `json:"items"`
	ShippingAddress AddressDTO           `json:"shipping_address"`
	BillingAddress  AddressDTO           `json:"billing_address"`
	ShippingMethod  string               `json:"shipping_method"`
	PaymentMethod   string               `json:"payment_method"`
	Payment         PaymentResultDTO     `json:"payment"`
}

type CreateOrderResponse struct {
	Success             bool       `json:"success"`
	Order               *OrderInfo `json:"order,omitempty"`
	DiscrepancyDetected bool       `json:"discrepancy_detected,omitempty"`
}

type OrderInfo struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"order_number"`
	Total         string `json:"total"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CreatedAt     string `json:"created_at"`
}

type OrderItemInfo struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type OrderDetailResponse struct {
	OrderInfo
	Items           []OrderItemInfo `json:"items"`
	Subtotal        string          `json:"subtotal"`
	ShippingCost    string          `json:"shipping_cost"`
	Tax             string          `json:"tax"`
	ShippingAddress AddressDTO      `json:"shipping_address"`
	BillingAddress  AddressDTO      `json:"billing_address"`
}

// StepCheckRequest carries the session completeness flags the storefront
// session layer tracks, plus where the shopper currently is.
type StepCheckRequest struct {
	Current           string `json:"current"`
	HasShippingInfo   bool   `json:"has_shipping_info"`
	HasShippingMethod bool   `json:"has_shipping_method"`
	HasPaymentMethod  bool   `json:"has_payment_method"`
	HasOrderID        bool   `json:"has_order_id"`
	ExpiresAt         string `json:"expires_at,omitempty"`
}

type StepCheckResponse struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect"`
	Expired  bool   `json:"expired,omitempty"`
}

type PaymentEventRequest struct {
	TransactionID string `json:"transaction_id"`
}

type ErrorResponse struct {
	Error   string          `json:"error"`
	Message string          `json:"message,omitempty"`
	Fields  []app.FieldError `json:"fields,omitempty"`
}
