package repository

import (
	"context"
	"errors"
	"time"

	"payments_backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository is the ORM-backed store used with DB_DRIVER=sqlite.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// AutoMigrate creates or updates the payments table.
func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Transaction{})
}

func (r *GormPaymentRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.UpdatedAt = tx.CreatedAt
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	return notFound(&tx, err)
}

func (r *GormPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", orderID).
		Order("created_at DESC").
		First(&tx).Error
	return notFound(&tx, err)
}

func (r *GormPaymentRepository) MarkSuccess(ctx context.Context, id uuid.UUID, paymentID, signature string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":              domain.StatusSuccess,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  signature,
			"updated_at":          at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormPaymentRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&domain.Transaction{})

	if f.GatewayOrderID != "" {
		q = q.Where("razorpay_order_id = ?", f.GatewayOrderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.GatewayPaymentID != "" {
		q = q.Where("razorpay_payment_id = ?", f.GatewayPaymentID)
	}

	payments := []domain.Transaction{}
	err := q.Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) ListSuccessfulSince(ctx context.Context, since time.Time, limit int) ([]domain.Transaction, error) {
	payments := []domain.Transaction{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", domain.StatusSuccess, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(tx *domain.Transaction, err error) (*domain.Transaction, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}
