package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"payments_backend/internal/domain"
	"payments_backend/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultRecentHours = 24
	DefaultRecentLimit = 10

	// maxRecentHours keeps the window arithmetic inside time.Duration
	maxRecentHours = 100 * 365 * 24
)

// QueryService serves read-only views over stored transactions
type QueryService struct {
	store repository.Store
	now   func() time.Time
}

func NewQueryService(store repository.Store) *QueryService {
	return &QueryService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecentQuery selects the window and size of the recent-successes view.
type RecentQuery struct {
	Hours int
	Limit int
}

// ParseRecentQuery applies defaults to empty values and rejects anything
// that is not a non-negative integer.
func ParseRecentQuery(hours, limit string) (RecentQuery, error) {
	q := RecentQuery{Hours: DefaultRecentHours, Limit: DefaultRecentLimit}

	var err error
	if hours = strings.TrimSpace(hours); hours != "" {
		if q.Hours, err = strconv.Atoi(hours); err != nil || q.Hours < 0 {
			return q, domain.NewValidationError("Invalid hours or limit parameter")
		}
	}
	if limit = strings.TrimSpace(limit); limit != "" {
		if q.Limit, err = strconv.Atoi(limit); err != nil || q.Limit < 0 {
			return q, domain.NewValidationError("Invalid hours or limit parameter")
		}
	}

	if q.Hours > maxRecentHours {
		q.Hours = maxRecentHours
	}

	return q, nil
}

// ParseListFilter builds a store filter from query parameters. status may be
// a code ("S") or a display name ("Success").
func ParseListFilter(orderID, status, paymentID string) (repository.TransactionFilter, error) {
	f := repository.TransactionFilter{
		GatewayOrderID:   strings.TrimSpace(orderID),
		GatewayPaymentID: strings.TrimSpace(paymentID),
	}

	if status = strings.TrimSpace(status); status != "" {
		st, ok := domain.ParseStatus(status)
		if !ok {
			return f, domain.NewValidationError("Invalid status: " + status)
		}
		f.Status = st
	}

	return f, nil
}

// List returns every transaction matching f, newest first.
func (s *QueryService) List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	return s.store.List(ctx, f)
}

// Get returns one transaction by its id.
func (s *QueryService) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}

	tx, err := s.store.GetByID(ctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, err
}

// Recent returns up to q.Limit successful transactions created within the
// last q.Hours hours, newest first.
func (s *QueryService) Recent(ctx context.Context, q RecentQuery) ([]domain.Transaction, error) {
	if q.Limit == 0 {
		return []domain.Transaction{}, nil
	}

	since := s.now().Add(-time.Duration(q.Hours) * time.Hour)
	return s.store.ListSuccessfulSince(ctx, since, q.Limit)
}
