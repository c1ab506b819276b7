package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, input order.CheckoutInput) (*order.CheckoutResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutResult), args.Error(1)
}

func (m *MockOrderService) VerifyPayment(ctx context.Context, reference string, orderID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, reference, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmFromWebhook(ctx context.Context, orderID uuid.UUID, data *payment.VerifyData) error {
	args := m.Called(ctx, orderID, data)
	return args.Error(0)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status order.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestCheckoutHandler_Checkout(t *testing.T) {
	t.Run("ManualMethodHasNoAuthorizationURL", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		o := &order.Order{ID: uuid.New(), PaymentMethod: order.MethodCallRep, Status: order.StatusPending}
		svc.On("Checkout", mock.Anything, mock.AnythingOfType("order.CheckoutInput")).
			Return(&order.CheckoutResult{Order: o}, nil)

		w := postJSON(t, h.Checkout, "/api/checkout", map[string]any{
			"userEmail":     "ada@example.com",
			"paymentMethod": "call_rep",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, o.ID.String(), resp["orderId"])
		assert.NotContains(t, resp, "authorizationUrl")
		assert.NotContains(t, resp, "reference")
	})

	t.Run("GatewayMethodReturnsCheckoutHandle", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		o := &order.Order{ID: uuid.New(), PaymentMethod: order.MethodDebitCard, Status: order.StatusPending}
		svc.On("Checkout", mock.Anything, mock.Anything).Return(&order.CheckoutResult{
			Order:            o,
			AuthorizationURL: "https://checkout.paystack.com/abc123",
			AccessCode:       "abc123",
			Reference:        o.Reference(),
		}, nil)

		w := postJSON(t, h.Checkout, "/api/checkout", map[string]any{
			"userEmail":     "ada@example.com",
			"paymentMethod": "debit_card",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://checkout.paystack.com/abc123", resp["authorizationUrl"])
		assert.Equal(t, "abc123", resp["accessCode"])
		assert.Equal(t, o.Reference(), resp["reference"])
	})

	t.Run("ValidationErrorIs400", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		svc.On("Checkout", mock.Anything, mock.Anything).Return(nil, order.ErrEmptyItems)

		w := postJSON(t, h.Checkout, "/api/checkout", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("SessionMismatchIs401", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		svc.On("Checkout", mock.Anything, mock.Anything).Return(nil, order.ErrForbidden)

		w := postJSON(t, h.Checkout, "/api/checkout", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MalformedBodyIs400", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		req := httptest.NewRequest("POST", "/api/checkout", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		h.Checkout(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	})
}

func TestCheckoutHandler_VerifyPayment(t *testing.T) {
	orderID := uuid.New()
	reference := "ORD-" + orderID.String()

	t.Run("Success", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		paid := &order.Order{ID: orderID, Paid: true, Status: order.StatusProcessing}
		svc.On("VerifyPayment", mock.Anything, reference, orderID).Return(paid, nil)

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"reference": reference,
			"orderId":   orderID.String(),
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp verifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Order)
		assert.True(t, resp.Order.Paid)
	})

	t.Run("NotConfirmedIsExpectedOutcome", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		svc.On("VerifyPayment", mock.Anything, reference, orderID).Return(nil, order.ErrNotConfirmed)

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"reference": reference,
			"orderId":   orderID.String(),
		})

		// Not an error response: the payment simply is not settled.
		assert.Equal(t, http.StatusOK, w.Code)

		var resp verifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "contact support")
	})

	t.Run("UnknownOrderIs404", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		svc.On("VerifyPayment", mock.Anything, reference, orderID).Return(nil, order.ErrOrderNotFound)

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"reference": reference,
			"orderId":   orderID.String(),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("TerminalOrderIs409", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		svc.On("VerifyPayment", mock.Anything, reference, orderID).
			Return(nil, fmt.Errorf("%w: cancelled -> processing", order.ErrInvalidTransition))

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"reference": reference,
			"orderId":   orderID.String(),
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MissingReferenceIs400", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"orderId": orderID.String(),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidOrderIDIs400", func(t *testing.T) {
		svc := new(MockOrderService)
		h := NewCheckoutHandler(svc)

		w := postJSON(t, h.VerifyPayment, "/api/checkout/verify", map[string]any{
			"reference": reference,
			"orderId":   "not-a-uuid",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
