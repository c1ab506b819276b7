package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Repository persists received webhook events. The unique key on
// (provider, reference, event_type) is the durable idempotency record for
// the provider's at-least-once delivery. A redelivery is a duplicate only
// once the earlier attempt has been marked processed; a row left behind by
// a failed attempt is handed back for reprocessing.
type Repository interface {
	SaveWebhookEvent(
		ctx context.Context,
		provider string,
		eventType string,
		reference string,
		payload json.RawMessage,
		signatureValid bool,
	) (eventID int64, isDuplicate bool, err error)

	MarkWebhookProcessed(ctx context.Context, eventID int64) error
	MarkWebhookFailed(ctx context.Context, eventID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhookEvent(
	ctx context.Context,
	provider string,
	eventType string,
	reference string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	var (
		id        int64
		processed bool
	)
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO webhook_events
			(provider, event_type, reference, payload, signature_valid, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, reference, event_type) DO UPDATE
			SET received_at = EXCLUDED.received_at
		RETURNING id, processed_at IS NOT NULL
	`, provider, eventType, reference, []byte(payload), signatureValid, time.Now().UTC()).Scan(&id, &processed)

	if err != nil {
		return 0, false, err
	}
	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events SET processed_at = $1, failed_reason = NULL WHERE id = $2
	`, time.Now().UTC(), eventID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, eventID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events SET failed_reason = $1 WHERE id = $2
	`, reason, eventID)
	return err
}
