package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	ListByEmail(ctx context.Context, email string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error

	// MarkPaid is a compare-and-set on paid = FALSE, excluding orders in a
	// terminal state. It writes the fixed values in one statement and
	// reports whether the row was updated, so racing confirmations converge
	// instead of overwriting each other and a cancelled or delivered order
	// is never resurrected by a late confirmation.
	MarkPaid(
		ctx context.Context,
		id uuid.UUID,
		status OrderStatus,
		reference string,
		verifiedAt time.Time,
		meta json.RawMessage,
	) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, number, user_email, user_name, items, total, address,
	payment_method, status, paid, payment_reference, payment_meta,
	verified_at, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	addr, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, number, user_email, user_name, items, total,
			address, payment_method, status, paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		o.ID, o.Number, o.UserEmail, o.UserName, items, o.Total,
		addr, o.PaymentMethod, o.Status, o.Paid, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE id = $1
	`, id)
	return scanOrder(row)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE payment_reference = $1
	`, reference)
	return scanOrder(row)
}

func (r *repository) ListByEmail(ctx context.Context, email string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3
	`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) MarkPaid(
	ctx context.Context,
	id uuid.UUID,
	status OrderStatus,
	reference string,
	verifiedAt time.Time,
	meta json.RawMessage,
) (bool, error) {

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET paid = TRUE,
			status = $1,
			payment_reference = $2,
			payment_meta = $3,
			verified_at = $4,
			updated_at = $5
		WHERE id = $6 AND paid = FALSE AND status NOT IN ($7, $8)
	`, status, reference, []byte(meta), verifiedAt, time.Now().UTC(), id,
		StatusCancelled, StatusDelivered)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o          Order
		items      []byte
		addr       []byte
		paymentRef sql.NullString
		meta       []byte
		verifiedAt sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.Number, &o.UserEmail, &o.UserName, &items, &o.Total, &addr,
		&o.PaymentMethod, &o.Status, &o.Paid, &paymentRef, &meta,
		&verifiedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal(addr, &o.Address); err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}
	if paymentRef.Valid {
		o.PaymentRef = &paymentRef.String
	}
	if len(meta) > 0 {
		o.PaymentMeta = json.RawMessage(meta)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		o.VerifiedAt = &t
	}
	return &o, nil
}
