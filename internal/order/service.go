package order

import (
	"context"
	"fmt"
	"time"

	"gidimart-be/internal/logger"
	"gidimart-be/internal/payment"
	"gidimart-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutInput struct {
	UserEmail     string        `json:"userEmail"`
	UserName      string        `json:"userName"`
	Items         []OrderItem   `json:"items"`
	Total         float64       `json:"total"`
	Address       Address       `json:"address"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// CheckoutResult is returned to the client. The gateway fields are empty for
// manual payment methods.
type CheckoutResult struct {
	Order            *Order
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, reference string, orderID uuid.UUID) (*Order, error)
	ConfirmFromWebhook(ctx context.Context, orderID uuid.UUID, data *payment.VerifyData) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus) error
}

type service struct {
	repo        Repository
	gateway     payment.Gateway
	callbackURL string
}

func NewService(repo Repository, gateway payment.Gateway, callbackURL string) Service {
	return &service{
		repo:        repo,
		gateway:     gateway,
		callbackURL: callbackURL,
	}
}

// Checkout validates the request, persists the order as pending and, for
// gateway methods, opens exactly one provider transaction carrying the order
// id in its metadata.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("user_email", input.UserEmail),
		zap.String("payment_method", string(input.PaymentMethod)),
		zap.Int("item_count", len(input.Items)),
	)

	sessionEmail := utils.GetUserEmailFromContext(ctx)
	if sessionEmail == "" || sessionEmail != input.UserEmail {
		log.Warn("checkout purchaser does not match session")
		return nil, ErrForbidden
	}

	if err := validateCheckout(input); err != nil {
		log.Warn("checkout validation failed", zap.Error(err))
		return nil, err
	}

	o := &Order{
		ID:            uuid.New(),
		Number:        utils.GenerateOrderNumber(),
		UserEmail:     input.UserEmail,
		UserName:      input.UserName,
		Items:         input.Items,
		Total:         input.Total,
		Address:       input.Address,
		PaymentMethod: input.PaymentMethod,
		Status:        StatusPending,
		Paid:          false,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	log = log.With(zap.String("order_id", o.ID.String()))
	log.Info("order created")

	if !o.PaymentMethod.RequiresGateway() {
		// Manual method: a representative confirms payment out-of-band.
		return &CheckoutResult{Order: o}, nil
	}

	initResp, err := s.gateway.InitializeTransaction(ctx, payment.InitializeRequest{
		AmountMinor: payment.ToMinorUnits(o.Total),
		Email:       o.UserEmail,
		Reference:   o.Reference(),
		CallbackURL: s.callbackURL,
		OrderID:     o.ID.String(),
		Channels:    channelsFor(o.PaymentMethod),
	})
	if err != nil {
		// The pending row would otherwise be orphaned. Cancel it before
		// surfacing the provider error; the client retries with a fresh
		// checkout.
		if cancelErr := s.repo.UpdateStatus(ctx, o.ID, StatusCancelled); cancelErr != nil {
			log.Error("failed to cancel order after gateway failure", zap.Error(cancelErr))
		}
		log.Error("gateway initialize failed", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	log.Info("payment initialized", zap.String("reference", initResp.Reference))

	return &CheckoutResult{
		Order:            o,
		AuthorizationURL: initResp.AuthorizationURL,
		AccessCode:       initResp.AccessCode,
		Reference:        initResp.Reference,
	}, nil
}

func validateCheckout(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return ErrEmptyItems
	}
	if !input.PaymentMethod.Valid() {
		return ErrInvalidMethod
	}
	if !input.Address.Complete() {
		return ErrIncompleteAddress
	}
	if input.Total <= 0 {
		return ErrInvalidTotal
	}

	// Compare in minor units so float drift in the client's sum cannot
	// produce spurious mismatches.
	var sumMinor int64
	for _, item := range input.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return ErrInvalidTotal
		}
		sumMinor += payment.ToMinorUnits(item.Price) * int64(item.Quantity)
	}
	if sumMinor != payment.ToMinorUnits(input.Total) {
		return ErrInvalidTotal
	}
	return nil
}

func channelsFor(m PaymentMethod) []string {
	switch m {
	case MethodDebitCard:
		return []string{"card"}
	case MethodBankTransfer:
		return []string{"bank_transfer"}
	}
	return nil
}

// VerifyPayment is the client-initiated confirmation path: re-query the
// provider by reference and, on success, mark the order confirmed. Safe to
// repeat and safe to race with the webhook; both write fixed values behind
// the MarkPaid guard. Orders in a terminal state are never confirmed; a
// compensated-cancelled order stays cancelled even when its provider
// transaction later settles.
func (s *service) VerifyPayment(ctx context.Context, reference string, orderID uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID.String()),
		zap.String("reference", reference),
	)

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Paid && o.Status.Terminal() {
		log.Warn("verification attempted on a terminal order", zap.String("status", string(o.Status)))
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusProcessing)
	}

	data, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		log.Error("provider verify failed", zap.Error(err))
		return nil, err
	}

	if !data.Succeeded() {
		log.Warn("payment not successful at provider", zap.String("provider_status", data.Status))
		return nil, ErrNotConfirmed
	}

	// The reference alone is caller-supplied. Tie the provider transaction
	// back to this order before trusting it.
	if data.Metadata.OrderID != "" && data.Metadata.OrderID != orderID.String() {
		log.Warn("provider transaction belongs to a different order",
			zap.String("metadata_order_id", data.Metadata.OrderID))
		return nil, ErrNotConfirmed
	}
	if data.Amount != payment.ToMinorUnits(o.Total) {
		log.Warn("provider amount does not match order total",
			zap.Int64("provider_amount", data.Amount),
			zap.Int64("order_amount", payment.ToMinorUnits(o.Total)))
		return nil, ErrNotConfirmed
	}

	verifiedAt := time.Now().UTC()
	if data.PaidAt != nil {
		verifiedAt = data.PaidAt.UTC()
	}

	applied, err := s.repo.MarkPaid(ctx, orderID, StatusProcessing, data.Reference, verifiedAt, data.MetaSnapshot())
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return nil, err
	}
	if !applied {
		log.Info("order already confirmed, verify is a no-op")
	} else {
		log.Info("order confirmed via verification endpoint")
	}

	return s.repo.GetByID(ctx, orderID)
}

// ConfirmFromWebhook is the provider-initiated confirmation path. The
// provider may redeliver; the MarkPaid guard makes repeats no-ops. A late
// delivery for a terminal order is rejected, not applied.
func (s *service) ConfirmFromWebhook(ctx context.Context, orderID uuid.UUID, data *payment.VerifyData) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", orderID.String()),
		zap.String("reference", data.Reference),
	)

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Paid {
		log.Info("webhook redelivery for already-paid order, ignoring")
		return nil
	}
	if o.Status.Terminal() {
		log.Warn("webhook confirmation for a terminal order", zap.String("status", string(o.Status)))
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusPaid)
	}

	paidAt := time.Now().UTC()
	if data.PaidAt != nil {
		paidAt = data.PaidAt.UTC()
	}

	applied, err := s.repo.MarkPaid(ctx, orderID, StatusPaid, data.Reference, paidAt, data.MetaSnapshot())
	if err != nil {
		log.Error("failed to mark order paid from webhook", zap.Error(err))
		return err
	}
	if !applied {
		log.Info("confirmation raced with another writer, ignoring")
		return nil
	}

	log.Info("order marked paid from webhook")
	return nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !utils.IsAdmin(ctx) && o.UserEmail != utils.GetUserEmailFromContext(ctx) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return nil, ErrForbidden
	}
	return s.repo.ListByEmail(ctx, email)
}

// UpdateStatus drives the manual/administrative transitions (shipped,
// delivered, cancelled). Paid transitions only ever come from the
// confirmation paths.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !o.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	return s.repo.UpdateStatus(ctx, orderID, status)
}
