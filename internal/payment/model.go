package payment

import (
	"encoding/json"
	"math"
	"time"
)

// ToMinorUnits converts a major-unit amount (Naira) to the provider's minor
// unit (kobo). Rounding before truncation keeps typical currency values
// exact, e.g. 999.99 -> 99999 rather than 99998.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// InitializeRequest is what the orchestrator hands the gateway for a paid
// order. Amount is already in minor units.
type InitializeRequest struct {
	AmountMinor int64
	Email       string
	Reference   string
	CallbackURL string
	OrderID     string
	Channels    []string
}

// InitializeResponse carries the provider-issued checkout handle back to the
// client.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Authorization is the masked instrument snapshot the provider returns. Full
// card data never reaches this service.
type Authorization struct {
	Last4    string `json:"last4,omitempty"`
	CardType string `json:"card_type,omitempty"`
	Bank     string `json:"bank,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

type Customer struct {
	Email string `json:"email"`
}

type EventMetadata struct {
	OrderID string `json:"orderId"`
}

// VerifyData is the provider's transaction state as reported by the
// verify-by-reference call and by webhook events.
type VerifyData struct {
	Status        string        `json:"status"`
	Reference     string        `json:"reference"`
	Amount        int64         `json:"amount"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	Customer      Customer      `json:"customer"`
	Authorization Authorization `json:"authorization"`
	Metadata      EventMetadata `json:"metadata"`
}

const statusSuccess = "success"

// Succeeded reports whether the provider settled the charge.
func (d *VerifyData) Succeeded() bool {
	return d != nil && d.Status == statusSuccess
}

// MetaSnapshot builds the payment metadata persisted onto the order: masked
// fragments only, fixed values so repeated confirmations write identical
// bytes.
func (d *VerifyData) MetaSnapshot() json.RawMessage {
	snap := struct {
		Reference     string        `json:"reference"`
		Amount        int64         `json:"amount"`
		Channel       string        `json:"channel,omitempty"`
		Authorization Authorization `json:"authorization"`
	}{
		Reference:     d.Reference,
		Amount:        d.Amount,
		Channel:       d.Authorization.Channel,
		Authorization: d.Authorization,
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return nil
	}
	return b
}

// EventTypeChargeSuccess is the only provider event this service handles.
const EventTypeChargeSuccess = "charge.success"

// Event is the provider's webhook envelope.
type Event struct {
	Event string     `json:"event"`
	Data  VerifyData `json:"data"`
}
