package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	svc order.Service
}

func NewCheckoutHandler(svc order.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutResponse struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"orderId,omitempty"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
	AccessCode       string `json:"accessCode,omitempty"`
	Reference        string `json:"reference,omitempty"`
	Message          string `json:"message"`
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input order.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Checkout(r.Context(), input)
	if err != nil {
		status, msg := checkoutErrorStatus(err)
		logger.FromCtx(r.Context()).Warn("checkout failed", zap.Error(err))
		writeError(w, status, msg)
		return
	}

	msg := "order placed, payment pending confirmation"
	if !result.Order.PaymentMethod.RequiresGateway() {
		msg = "order placed, a representative will contact you to complete payment"
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Success:          true,
		OrderID:          result.Order.ID.String(),
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
		Message:          msg,
	})
}

func checkoutErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, order.ErrForbidden):
		return http.StatusUnauthorized, "purchaser does not match the signed-in user"
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidTotal),
		errors.Is(err, order.ErrIncompleteAddress),
		errors.Is(err, order.ErrInvalidMethod):
		return http.StatusBadRequest, err.Error()
	default:
		// Provider and storage failures. The provider's own message is
		// embedded in the wrapped error.
		return http.StatusInternalServerError, err.Error()
	}
}

type verifyRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

type verifyResponse struct {
	Success bool         `json:"success"`
	Order   *order.Order `json:"order,omitempty"`
	Message string       `json:"message,omitempty"`
}

// VerifyPayment handles POST /api/checkout/verify, the client-initiated
// confirmation after the provider widget reports success.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.svc.VerifyPayment(r.Context(), req.Reference, orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "order can no longer be confirmed")
		case errors.Is(err, order.ErrNotConfirmed):
			// Expected outcome, not an exceptional one.
			writeJSON(w, http.StatusOK, verifyResponse{
				Success: false,
				Message: "payment not verified, contact support",
			})
		default:
			logger.FromCtx(r.Context()).Error("verification failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Order:   o,
	})
}
