package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payments_backend/internal/domain"
	"payments_backend/internal/logger"
	"payments_backend/internal/razorpay"
	"payments_backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventPaymentConfirmed = "payment.confirmed"

// maxAmount is the largest value a 10-digit, 2-decimal amount can hold.
var maxAmount = decimal.RequireFromString("99999999.99")

// Bounds on the textual amount. Rounding rescales to two decimals, so the
// exponent must be checked before any arithmetic.
const (
	maxAmountTextLength = 32
	maxAmountExponent   = 8
	minAmountExponent   = -20
)

// MsgConfirmFieldsRequired is returned when a confirmation lacks a field.
const MsgConfirmFieldsRequired = "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"

// Gateway is the subset of the Razorpay client the payment flow needs.
type Gateway interface {
	CreateOrder(ctx context.Context, order razorpay.OrderRequest) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
}

// EventPublisher fans confirmed payments out to live subscribers.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// PaymentConfig is the gateway account data exposed to the payment flow.
type PaymentConfig struct {
	KeyID    string
	Currency string
}

// PaymentService handles order initiation and payment confirmation
type PaymentService struct {
	store   repository.Store
	gateway Gateway
	cfg     PaymentConfig
	events  EventPublisher
	locks   *keyedMutex
	now     func() time.Time
}

// NewPaymentService creates a new payment service. events may be nil.
func NewPaymentService(store repository.Store, gateway Gateway, cfg PaymentConfig, events EventPublisher) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &PaymentService{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		events:  events,
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// InitiateResult is what the checkout needs to open the gateway form.
type InitiateResult struct {
	OrderID          string
	AmountMinorUnits int64
	KeyID            string
	Transaction      *domain.Transaction
}

// ParseAmount validates a requested amount and returns it rounded to two
// decimals together with its minor-unit value.
func ParseAmount(raw string) (decimal.Decimal, int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, 0, domain.NewValidationError("Amount is required")
	}

	if len(raw) > maxAmountTextLength {
		return decimal.Zero, 0, domain.NewValidationError("Invalid amount format")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, 0, domain.NewValidationError("Invalid amount format")
	}

	switch exp := amount.Exponent(); {
	case exp > maxAmountExponent && amount.Sign() <= 0:
		return decimal.Zero, 0, domain.NewValidationError("Amount must be greater than 0")
	case exp > maxAmountExponent:
		return decimal.Zero, 0, domain.NewValidationError("Amount must not exceed " + maxAmount.StringFixed(2))
	case exp < minAmountExponent:
		return decimal.Zero, 0, domain.NewValidationError("Invalid amount format")
	}

	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, 0, domain.NewValidationError("Amount must be greater than 0")
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, 0, domain.NewValidationError("Amount must not exceed " + maxAmount.StringFixed(2))
	}

	return amount, amount.Shift(2).IntPart(), nil
}

// Initiate creates a gateway order for the amount and records it as Pending.
func (s *PaymentService) Initiate(ctx context.Context, rawAmount string) (*InitiateResult, error) {
	amount, minor, err := ParseAmount(rawAmount)
	if err != nil {
		PaymentsInitiated.WithLabelValues("invalid").Inc()
		return nil, err
	}

	id := uuid.New()
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:         minor,
		Currency:       s.cfg.Currency,
		Receipt:        id.String(),
		PaymentCapture: razorpay.CaptureAutomatic,
	})
	if err != nil {
		PaymentsInitiated.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	now := s.now()
	tx := &domain.Transaction{
		ID:               id,
		GatewayOrderID:   order.ID,
		Amount:           amount,
		AmountMinorUnits: minor,
		Currency:         s.cfg.Currency,
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Create(ctx, tx); err != nil {
		PaymentsInitiated.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("save transaction for order %s: %w", order.ID, err)
	}

	PaymentsInitiated.WithLabelValues("created").Inc()
	logger.WithContext(ctx).Info("payment initiated",
		"transaction_id", tx.ID, "order_id", tx.GatewayOrderID, "amount_minor", minor, "currency", tx.Currency)

	return &InitiateResult{
		OrderID:          order.ID,
		AmountMinorUnits: minor,
		KeyID:            s.cfg.KeyID,
		Transaction:      tx,
	}, nil
}

// ConfirmRequest carries the values the checkout posts back after payment.
type ConfirmRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Confirm verifies the checkout signature and moves the matching transaction
// from Pending to Success. Repeating a successful confirmation with the same
// values returns the stored transaction unchanged.
func (s *PaymentService) Confirm(ctx context.Context, req ConfirmRequest) (*domain.Transaction, error) {
	// the stored values must match what was verified
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.Signature = strings.ToLower(strings.TrimSpace(req.Signature))

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		PaymentsConfirmed.WithLabelValues("invalid").Inc()
		return nil, domain.NewValidationError(MsgConfirmFieldsRequired)
	}

	if err := s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		PaymentsConfirmed.WithLabelValues("invalid_signature").Inc()
		logger.WithContext(ctx).Warn("payment signature rejected", "order_id", req.OrderID, "payment_id", req.PaymentID)
		return nil, domain.ErrInvalidSignature
	}

	unlock := s.locks.Lock(req.OrderID)
	defer unlock()

	tx, err := s.store.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			PaymentsConfirmed.WithLabelValues("not_found").Inc()
			return nil, domain.ErrTransactionNotFound
		}
		PaymentsConfirmed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load order %s: %w", req.OrderID, err)
	}

	if tx.IsFinal() {
		return s.alreadyFinal(ctx, tx, req)
	}

	now := s.now()
	updated, err := s.store.MarkSuccess(ctx, tx.ID, req.PaymentID, req.Signature, now)
	if err != nil {
		PaymentsConfirmed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("update order %s: %w", req.OrderID, err)
	}
	if !updated {
		// another process won the conditional update
		current, err := s.store.GetByID(ctx, tx.ID)
		if err != nil {
			PaymentsConfirmed.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("reload order %s: %w", req.OrderID, err)
		}
		return s.alreadyFinal(ctx, current, req)
	}

	tx.Status = domain.StatusSuccess
	tx.GatewayPaymentID = req.PaymentID
	tx.GatewaySignature = req.Signature
	tx.UpdatedAt = now

	PaymentsConfirmed.WithLabelValues("success").Inc()
	logger.WithContext(ctx).Info("payment confirmed",
		"transaction_id", tx.ID, "order_id", tx.GatewayOrderID, "payment_id", tx.GatewayPaymentID)

	if s.events != nil {
		s.events.Publish(EventPaymentConfirmed, NewPaymentConfirmedEvent(tx))
	}

	return tx, nil
}

func (s *PaymentService) alreadyFinal(ctx context.Context, tx *domain.Transaction, req ConfirmRequest) (*domain.Transaction, error) {
	if tx.Status == domain.StatusSuccess && tx.GatewayPaymentID == req.PaymentID && tx.GatewaySignature == req.Signature {
		PaymentsConfirmed.WithLabelValues("duplicate").Inc()
		return tx, nil
	}

	PaymentsConfirmed.WithLabelValues("not_pending").Inc()
	logger.WithContext(ctx).Warn("confirmation for settled order",
		"order_id", tx.GatewayOrderID, "status", tx.Status.Display(), "payment_id", req.PaymentID)
	return nil, domain.ErrNotPending
}

// PaymentConfirmedEvent is the live-feed payload for a confirmed payment.
type PaymentConfirmedEvent struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	PaymentID   string    `json:"payment_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func NewPaymentConfirmedEvent(tx *domain.Transaction) PaymentConfirmedEvent {
	return PaymentConfirmedEvent{
		ID:          tx.ID.String(),
		OrderID:     tx.GatewayOrderID,
		PaymentID:   tx.GatewayPaymentID,
		Amount:      tx.Amount.StringFixed(2),
		Currency:    tx.Currency,
		ConfirmedAt: tx.UpdatedAt,
	}
}
