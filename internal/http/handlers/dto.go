package handlers

import (
	"time"

	"payments_backend/internal/domain"
)

// PaymentResponse is the client view of a transaction.
type PaymentResponse struct {
	ID                string `json:"id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	Amount            string `json:"amount"`
	AmountInPaisa     int64  `json:"amount_in_paisa"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	StatusDisplay     string `json:"status_display"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func newPaymentResponse(tx *domain.Transaction) PaymentResponse {
	return PaymentResponse{
		ID:                tx.ID.String(),
		RazorpayOrderID:   tx.GatewayOrderID,
		RazorpayPaymentID: tx.GatewayPaymentID,
		Amount:            tx.Amount.StringFixed(2),
		AmountInPaisa:     tx.AmountMinorUnits,
		Currency:          tx.Currency,
		Status:            string(tx.Status),
		StatusDisplay:     tx.Status.Display(),
		CreatedAt:         tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         tx.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// RecentTransaction is one row of the recent-successes view.
type RecentTransaction struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func newRecentTransaction(tx *domain.Transaction) RecentTransaction {
	return RecentTransaction{
		OrderID:   tx.GatewayOrderID,
		PaymentID: tx.GatewayPaymentID,
		Amount:    tx.Amount.StringFixed(2),
		Currency:  tx.Currency,
		Status:    tx.Status.Display(),
		Timestamp: tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
