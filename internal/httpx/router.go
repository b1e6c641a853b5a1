package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/checkout-engine/internal/httpx/middlewares"
)

// NewRouter wires the checkout API. Mutating checkout endpoints sit behind
// the security guard; the guard chain runs before any handler logic, so a
// rejected request never reaches the use case.
func NewRouter(handler *Handler, guard *middlewares.Guard) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/checkout/session", handler.StartSession)

	r.With(guard.Protect("step-check")).Post("/checkout/steps/{step}", handler.CheckStep)
	r.With(guard.Protect("create-order")).Post("/checkout/orders", handler.CreateOrder)

	r.Get("/orders/{id}", handler.GetOrder)
	r.Get("/orders/number/{number}", handler.GetOrderByNumber)
	r.Get("/users/{userID}/orders", handler.ListUserOrders)

	r.Post("/orders/{id}/payment", handler.ConfirmPayment)
	r.Post("/orders/{id}/ship", handler.Ship)
	r.Post("/orders/{id}/deliver", handler.Deliver)
	r.Post("/orders/{id}/cancel", handler.Cancel)

	return r
}
