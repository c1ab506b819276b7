package transport

import (
	"net/http"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/middleware"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/payment/webhook"
	"gidimart-be/internal/user"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires all HTTP endpoints. The webhook route bypasses the auth
// middleware: the provider authenticates with its body signature, not a
// session.
func NewRouter(
	orderSvc order.Service,
	userSvc user.Service,
	gateway payment.Gateway,
	events payment.Repository,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("OK"))
	})

	authH := NewAuthHandler(userSvc)
	checkoutH := NewCheckoutHandler(orderSvc)
	orderH := NewOrderHandler(orderSvc)
	webhookH := webhook.NewHandler(orderSvc, gateway, events)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Post("/checkout", checkoutH.Checkout)
		r.Post("/checkout/verify", checkoutH.VerifyPayment)

		r.Get("/orders", orderH.ListOrders)
		r.Get("/orders/{id}", orderH.GetOrder)
		r.Patch("/orders/{id}/status", orderH.UpdateStatus)
	})

	r.Post("/webhooks/paystack", webhookH.HandlePaystackEvent)

	return r
}
