package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"payments_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, razorpay_order_id, razorpay_payment_id, razorpay_signature,
		       amount, amount_in_paisa, currency, status, created_at, updated_at`

// PaymentRepository is the Postgres transaction store
type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new transaction
func (r *PaymentRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO payments (id, razorpay_order_id, razorpay_payment_id, razorpay_signature,
		                      amount, amount_in_paisa, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING created_at, updated_at
	`, tx.ID, tx.GatewayOrderID, tx.GatewayPaymentID, tx.GatewaySignature,
		tx.Amount, tx.AmountMinorUnits, tx.Currency, tx.Status, createdAt(tx),
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
}

// GetByID retrieves a transaction by id
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, id)

	return scanPayment(row)
}

// GetByOrderID retrieves the latest transaction for a gateway order
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE razorpay_order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	return scanPayment(row)
}

// MarkSuccess transitions a pending transaction; the status guard makes a
// concurrent second transition a no-op.
func (r *PaymentRepository) MarkSuccess(ctx context.Context, id uuid.UUID, paymentID, signature string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, razorpay_payment_id = $3, razorpay_signature = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`, id, domain.StatusSuccess, paymentID, signature, at, domain.StatusPending)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// List retrieves transactions matching every non-empty filter field
func (r *PaymentRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE 1 = 1`
	args := []any{}

	if f.GatewayOrderID != "" {
		args = append(args, f.GatewayOrderID)
		q += " AND razorpay_order_id = $" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		args = append(args, f.Status)
		q += " AND status = $" + strconv.Itoa(len(args))
	}

	if f.GatewayPaymentID != "" {
		args = append(args, f.GatewayPaymentID)
		q += " AND razorpay_payment_id = $" + strconv.Itoa(len(args))
	}

	q += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

// ListSuccessfulSince retrieves recent successful transactions
func (r *PaymentRepository) ListSuccessfulSince(ctx context.Context, since time.Time, limit int) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, domain.StatusSuccess, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (r *PaymentRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func createdAt(tx *domain.Transaction) time.Time {
	if tx.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return tx.CreatedAt
}

func scanPayment(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction

	if err := row.Scan(
		&t.ID, &t.GatewayOrderID, &t.GatewayPaymentID, &t.GatewaySignature,
		&t.Amount, &t.AmountMinorUnits, &t.Currency, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanPayments(rows pgx.Rows) ([]domain.Transaction, error) {
	payments := []domain.Transaction{}

	for rows.Next() {
		t, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *t)
	}

	return payments, rows.Err()
}
