package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/order"
	"gidimart-be/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	signatureHeader = "x-paystack-signature"
	providerName    = "PAYSTACK"
)

type Handler struct {
	orderSvc order.Service
	gateway  payment.Gateway
	events   payment.Repository
}

func NewHandler(orderSvc order.Service, gateway payment.Gateway, events payment.Repository) *Handler {
	return &Handler{
		orderSvc: orderSvc,
		gateway:  gateway,
		events:   events,
	}
}

// HandlePaystackEvent processes provider callbacks. Everything short of a
// storage failure is acknowledged with 200: returning an error status for a
// bad event only triggers the provider's retry storm, it does not make the
// event trustworthy. Acknowledging receipt and trusting the content are
// separate decisions.
func (h *Handler) HandlePaystackEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !h.gateway.VerifyWebhookSignature(body, r.Header.Get(signatureHeader)) {
		log.Warn("webhook signature missing or invalid, discarding event")
		ack(w)
		return
	}

	var evt payment.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Warn("webhook body is not a valid event envelope", zap.Error(err))
		ack(w)
		return
	}

	log = log.With(
		zap.String("event", evt.Event),
		zap.String("reference", evt.Data.Reference),
	)

	if evt.Event != payment.EventTypeChargeSuccess {
		log.Debug("ignoring unhandled event type")
		ack(w)
		return
	}

	if evt.Data.Reference == "" {
		log.Warn("charge.success event without a reference, discarding")
		ack(w)
		return
	}

	eventID, duplicate, err := h.events.SaveWebhookEvent(
		ctx, providerName, evt.Event, evt.Data.Reference, body, true,
	)
	if err != nil {
		log.Error("failed to record webhook event", zap.Error(err))
		http.Error(w, "failed to record event", http.StatusInternalServerError)
		return
	}
	if duplicate {
		log.Info("duplicate webhook delivery, already processed")
		ack(w)
		return
	}

	orderID, err := uuid.Parse(evt.Data.Metadata.OrderID)
	if err != nil {
		// Payment settled but cannot be linked to an order. Operational
		// alert condition, not a crash.
		log.Warn("charge.success has no usable orderId in metadata",
			zap.String("order_id_raw", evt.Data.Metadata.OrderID),
		)
		_ = h.events.MarkWebhookFailed(ctx, eventID, "missing or invalid orderId metadata")
		ack(w)
		return
	}

	if err := h.orderSvc.ConfirmFromWebhook(ctx, orderID, &evt.Data); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Warn("charge.success references an unknown order",
				zap.String("order_id", orderID.String()),
			)
			_ = h.events.MarkWebhookFailed(ctx, eventID, "order not found")
			ack(w)
			return
		}
		if errors.Is(err, order.ErrInvalidTransition) {
			// Settled at the provider but the order is already terminal,
			// e.g. cancelled after a gateway failure. Retrying cannot
			// change that.
			log.Warn("charge.success for an order in a terminal state",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
			_ = h.events.MarkWebhookFailed(ctx, eventID, err.Error())
			ack(w)
			return
		}

		log.Error("failed to confirm order from webhook", zap.Error(err))
		_ = h.events.MarkWebhookFailed(ctx, eventID, err.Error())
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	_ = h.events.MarkWebhookProcessed(ctx, eventID)
	ack(w)
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
