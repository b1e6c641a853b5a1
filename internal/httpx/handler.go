package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/flow"
	"github.com/jcmexdev/checkout-engine/internal/httpx/middlewares"
	"github.com/jcmexdev/checkout-engine/internal/order"
	"github.com/jcmexdev/checkout-engine/internal/order/domain"
	"github.com/jcmexdev/checkout-engine/internal/security"
)

// Handler handles the checkout API: session issuance, step gating, order
// creation and the fulfillment events driving the order lifecycle.
type Handler struct {
	createOrder *app.CreateOrderUseCase
	orders      order.Repository
	csrf        *security.CSRFManager
}

// NewHandler initializes the handler with its required collaborators.
func NewHandler(createOrder *app.CreateOrderUseCase, orders order.Repository, csrf *security.CSRFManager) *Handler {
	return &Handler{
		createOrder: createOrder,
		orders:      orders,
		csrf:        csrf,
	}
}

// StartSession establishes (or refreshes) a checkout session and issues its
// CSRF token. A client-supplied session id that fails the format check is
// silently replaced.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := security.EnsureSessionID(r.Header.Get(middlewares.HeaderSessionID))

	token, err := h.csrf.Issue(r.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "csrf issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "csrf_issue_failed", "")
		return
	}

	writeJSON(w, http.StatusOK, StartSessionResponse{
		SessionID: sessionID,
		CSRFToken: token,
	})
}

// CheckStep evaluates whether the session may open the requested checkout
// step, returning the redirect target when it may not.
func (h *Handler) CheckStep(w http.ResponseWriter, r *http.Request) {
	requested, ok := flow.ParseStep(chi.URLParam(r, "step"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_step", "step must be one of shipping, payment, review, confirmation")
		return
	}

	var req StepCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	session, err := sessionFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_state", err.Error())
		return
	}

	decision := flow.Access(session, requested, time.Now())
	writeJSON(w, http.StatusOK, StepCheckResponse{
		Allowed:  decision.Allowed,
		Redirect: decision.Redirect.String(),
		Expired:  decision.Expired,
	})
}

// CreateOrder runs the checkout submission. The security middleware has
// already validated the session, rate limit and CSRF token.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	input, fieldErrs := mapCreateOrderRequest(req)
	if len(fieldErrs) > 0 {
		writeValidationError(w, &app.ValidationError{Fields: fieldErrs})
		return
	}
	input.SessionID = middlewares.SessionFromContext(r.Context())

	result, err := h.createOrder.Execute(r.Context(), input)
	if err != nil {
		writeCreateOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateOrderResponse{
		Success:             true,
		Order:               mapResult(result),
		DiscrepancyDetected: result.DiscrepancyDetected,
	})
}

// GetOrder retrieves a single order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", err.Error())
		return
	}

	o, err := h.orders.FindByID(r.Context(), id)
	h.respondOrder(w, r, o, err)
}

// GetOrderByNumber retrieves a single order by its customer-facing number.
func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.FindByOrderNumber(r.Context(), chi.URLParam(r, "number"))
	h.respondOrder(w, r, o, err)
}

// ListUserOrders returns a user's order history, newest first.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.orders.FindByUserID(r.Context(), userID, order.Page{Limit: limit, Offset: offset})
	if err != nil {
		slog.ErrorContext(r.Context(), "list orders failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "order_lookup_failed", "")
		return
	}

	out := make([]OrderDetailResponse, 0, len(orders))
	for i := range orders {
		out = append(out, mapOrderDetail(&orders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ConfirmPayment records a successful charge reported by the gateway.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	h.applyTransition(w, r, func(o *domain.Order) error {
		return o.ConfirmPayment(req.TransactionID)
	})
}

// Ship marks a paid order as shipped.
func (h *Handler) Ship(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, (*domain.Order).MarkAsShipped)
}

// Deliver marks a shipped order as delivered.
func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, (*domain.Order).MarkAsDelivered)
}

// Cancel cancels an order that has not shipped yet.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, (*domain.Order).Cancel)
}

// applyTransition loads the order, runs the lifecycle event against the
// aggregate so its guards are enforced, and persists the resulting statuses.
func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, event func(*domain.Order) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", err.Error())
		return
	}

	o, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "order lookup failed", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "order_lookup_failed", "")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}

	before := *o
	if err := event(o); err != nil {
		var transition *domain.InvalidTransitionError
		if errors.As(err, &transition) {
			writeError(w, http.StatusConflict, "invalid_state_transition", transition.Error())
			return
		}
		slog.ErrorContext(r.Context(), "transition failed", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "transition_failed", "")
		return
	}

	// Payment status is persisted first: if the second write fails, the
	// store holds a paid PENDING order, and retrying the event converges it.
	// The reverse order could record PROCESSING for an order whose payment
	// was never saved.
	if o.PaymentStatus != before.PaymentStatus || o.PaymentIntentID != before.PaymentIntentID {
		if err := h.orders.UpdatePaymentStatus(r.Context(), id, o.PaymentStatus, o.PaymentIntentID); err != nil {
			slog.ErrorContext(r.Context(), "payment status update failed", "order_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "status_update_failed", "")
			return
		}
	}
	if o.Status != before.Status {
		if err := h.orders.UpdateStatus(r.Context(), id, o.Status); err != nil {
			slog.ErrorContext(r.Context(), "status update failed", "order_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "status_update_failed", "")
			return
		}
	}

	writeJSON(w, http.StatusOK, mapOrderDetail(o))
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, o *domain.Order, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "order lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "order_lookup_failed", "")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, mapOrderDetail(o))
}

// --- mapping helpers ---

func mapCreateOrderRequest(req CreateOrderRequest) (app.CreateOrderInput, []app.FieldError) {
	var fieldErrs []app.FieldError

	items := make([]app.CreateOrderItem, 0, len(req.Items))
	for i, it := range req.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			fieldErrs = append(fieldErrs, app.FieldError{
				Field:   "items[" + strconv.Itoa(i) + "].price",
				Message: "is not a valid decimal",
			})
			continue
		}
		items = append(items, app.CreateOrderItem{
			ProductID:   it.ProductID,
			ClientPrice: price,
			Quantity:    it.Quantity,
			// Snapshot text is client-supplied and later rendered on
			// receipts, so it is entity-encoded on the way in.
			Snapshot: domain.ProductSnapshot{
				Name:     security.SanitizeString(it.Snapshot.Name),
				SKU:      security.SanitizeString(it.Snapshot.SKU),
				ImageURL: security.SanitizeString(it.Snapshot.ImageURL),
			},
		})
	}

	return app.CreateOrderInput{
		UserID:           req.UserID,
		Currency:         req.Currency,
		Items:            items,
		ShippingAddress:  mapAddress(req.ShippingAddress),
		BillingAddress:   mapAddress(req.BillingAddress),
		ShippingMethodID: req.ShippingMethod,
		PaymentMethod:    app.PaymentMethod(req.PaymentMethod),
		Payment: app.GatewayResult{
			Success:       req.Payment.Success,
			Pending:       req.Payment.Pending,
			TransactionID: req.Payment.TransactionID,
		},
	}, fieldErrs
}

func mapAddress(dto AddressDTO) domain.Address {
	return domain.Address{
		FirstName:  security.SanitizeString(dto.FirstName),
		LastName:   security.SanitizeString(dto.LastName),
		Company:    security.SanitizeString(dto.Company),
		Street:     security.SanitizeString(dto.Street),
		City:       security.SanitizeString(dto.City),
		PostalCode: security.SanitizeString(dto.PostalCode),
		Province:   security.SanitizeString(dto.Province),
		Country:    security.SanitizeString(dto.Country),
		Phone:      security.SanitizeString(dto.Phone),
	}
}

func mapAddressDTO(a domain.Address) AddressDTO {
	return AddressDTO{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Province:   a.Province,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func mapResult(res *app.CreateOrderResult) *OrderInfo {
	return &OrderInfo{
		ID:            res.OrderID,
		OrderNumber:   res.OrderNumber,
		Total:         res.Total.Format(),
		Status:        string(res.Status),
		PaymentStatus: string(res.PaymentStatus),
		CreatedAt:     res.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapOrderDetail(o *domain.Order) OrderDetailResponse {
	items := make([]OrderItemInfo, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemInfo{
			ProductID: it.ProductID,
			Name:      it.Snapshot.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Format(),
			Subtotal:  it.Subtotal().Round().Format(),
		})
	}

	subtotal, _ := o.Subtotal()
	return OrderDetailResponse{
		OrderInfo: OrderInfo{
			ID:            o.ID.String(),
			OrderNumber:   o.OrderNumber,
			Total:         o.Total.Format(),
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
		},
		Items:           items,
		Subtotal:        subtotal.Round().Format(),
		ShippingCost:    o.ShippingCost.Format(),
		Tax:             o.Tax.Format(),
		ShippingAddress: mapAddressDTO(o.ShippingAddress),
		BillingAddress:  mapAddressDTO(o.BillingAddress),
	}
}

func sessionFromDTO(req StepCheckRequest) (flow.Session, error) {
	current := flow.StepShipping
	if req.Current != "" {
		step, ok := flow.ParseStep(req.Current)
		if !ok {
			return flow.Session{}, errors.New("current: unknown step " + strconv.Quote(req.Current))
		}
		current = step
	}

	var expiresAt time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return flow.Session{}, errors.New("expires_at: must be RFC3339")
		}
		expiresAt = t
	}

	return flow.Session{
		Current:           current,
		HasShippingInfo:   req.HasShippingInfo,
		HasShippingMethod: req.HasShippingMethod,
		HasPaymentMethod:  req.HasPaymentMethod,
		HasOrderID:        req.HasOrderID,
		ExpiresAt:         expiresAt,
	}, nil
}

// --- error writers ---

func writeCreateOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *app.ValidationError
	var unavailable *app.ProductUnavailableError

	switch {
	case errors.As(err, &validation):
		writeValidationError(w, validation)
	case errors.As(err, &unavailable):
		writeError(w, http.StatusUnprocessableEntity, "product_unavailable", unavailable.Error())
	case errors.Is(err, order.ErrDuplicateSession):
		writeError(w, http.StatusConflict, "duplicate_submission", "an order already exists for this checkout session")
	default:
		slog.ErrorContext(r.Context(), "create order failed", "error", err)
		writeError(w, http.StatusInternalServerError, "order_creation_failed", "")
	}
}

func writeValidationError(w http.ResponseWriter, err *app.ValidationError) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "validation_error",
		Fields: err.Fields,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
