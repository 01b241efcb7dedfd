package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is stored as a single-letter code.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "P"
	StatusSuccess TransactionStatus = "S"
	StatusFailed  TransactionStatus = "F"
)

// Display returns the human-readable status name.
func (s TransactionStatus) Display() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// ParseStatus accepts either the stored code ("S") or the display name
// ("success"), case-insensitively.
func ParseStatus(v string) (TransactionStatus, bool) {
	v = strings.TrimSpace(v)
	for _, s := range []TransactionStatus{StatusPending, StatusSuccess, StatusFailed} {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, s.Display()) {
			return s, true
		}
	}
	return "", false
}

// Transaction is one payment attempt against the gateway.
type Transaction struct {
	ID               uuid.UUID         `db:"id" json:"id" gorm:"type:uuid;primaryKey"`
	GatewayOrderID   string            `db:"razorpay_order_id" json:"razorpay_order_id" gorm:"column:razorpay_order_id;size:255;not null;index"`
	GatewayPaymentID string            `db:"razorpay_payment_id" json:"razorpay_payment_id" gorm:"column:razorpay_payment_id;size:255;not null;default:''"`
	GatewaySignature string            `db:"razorpay_signature" json:"-" gorm:"column:razorpay_signature;size:255;not null;default:''"`
	Amount           decimal.Decimal   `db:"amount" json:"amount" gorm:"type:decimal(10,2);not null"`
	AmountMinorUnits int64             `db:"amount_in_paisa" json:"amount_in_paisa" gorm:"column:amount_in_paisa;not null"`
	Currency         string            `db:"currency" json:"currency" gorm:"size:3;not null;default:'INR'"`
	Status           TransactionStatus `db:"status" json:"status" gorm:"size:1;not null;default:'P';index:idx_payments_status_created,priority:1"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at" gorm:"not null;index:idx_payments_status_created,priority:2"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string {
	return "payments"
}

// IsFinal reports whether the transaction can no longer change status.
func (t *Transaction) IsFinal() bool {
	return t.Status != StatusPending
}
