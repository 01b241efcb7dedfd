package repository

import (
	"context"
	"errors"
	"time"

	"payments_backend/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// TransactionFilter holds optional exact-match filters; empty fields are ignored.
type TransactionFilter struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Status           domain.TransactionStatus
}

// Store is the durable transaction record shared by the payment services.
type Store interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetByOrderID returns the most recent transaction for a gateway order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
	// MarkSuccess moves a pending transaction to Success. It reports false
	// without error when the row is no longer pending.
	MarkSuccess(ctx context.Context, id uuid.UUID, paymentID, signature string, at time.Time) (bool, error)
	// List returns matching transactions newest first.
	List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error)
	// ListSuccessfulSince returns up to limit Success transactions created at
	// or after since, newest first.
	ListSuccessfulSince(ctx context.Context, since time.Time, limit int) ([]domain.Transaction, error)
	Ping(ctx context.Context) error
}
