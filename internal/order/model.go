package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCallRep      PaymentMethod = "call_rep"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodDebitCard, MethodBankTransfer, MethodCallRep:
		return true
	}
	return false
}

// RequiresGateway reports whether the method is settled through the payment
// provider. call_rep orders are confirmed out-of-band by a representative.
func (m PaymentMethod) RequiresGateway() bool {
	return m == MethodDebitCard || m == MethodBankTransfer
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusPaid       OrderStatus = "paid"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward progression pending -> processing -> paid ->
// shipped -> delivered. cancelled sits outside the rank and is handled
// separately.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusPaid:       2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo enforces the forward-only progression. cancelled is
// reachable from any non-terminal state; nothing leaves a terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (a Address) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.Country != ""
}

type Order struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	UserEmail     string          `json:"userEmail"`
	UserName      string          `json:"userName"`
	Items         []OrderItem     `json:"items"`
	Total         float64         `json:"total"`
	Address       Address         `json:"address"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	Paid          bool            `json:"paid"`
	PaymentRef    *string         `json:"paymentReference,omitempty"`
	PaymentMeta   json.RawMessage `json:"paymentMeta,omitempty"`
	VerifiedAt    *time.Time      `json:"verifiedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Reference is the caller-generated idempotent reference passed to the
// gateway at initialize time. Deriving it from the order id keeps retries of
// the same order from opening a second provider transaction.
func (o *Order) Reference() string {
	return "ORD-" + o.ID.String()
}
