// Package testutil holds in-memory collaborators for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"payments_backend/internal/domain"
	"payments_backend/internal/repository"

	"github.com/google/uuid"
)

// MemoryStore implements repository.Store over a map.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]domain.Transaction
	Writes  int
	FailErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]domain.Transaction)}
}

var _ repository.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailErr != nil {
		return s.FailErr
	}
	if _, ok := s.rows[tx.ID]; ok {
		return errors.New("duplicate id")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = tx.CreatedAt
	}
	s.rows[tx.ID] = *tx
	s.Writes++
	return nil
}

// Seed inserts transactions without counting writes.
func (s *MemoryStore) Seed(txs ...domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		if tx.UpdatedAt.IsZero() {
			tx.UpdatedAt = tx.CreatedAt
		}
		s.rows[tx.ID] = tx
	}
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tx, nil
}

func (s *MemoryStore) GetByOrderID(_ context.Context, orderID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *domain.Transaction
	for _, tx := range s.rows {
		if tx.GatewayOrderID != orderID {
			continue
		}
		if found == nil || tx.CreatedAt.After(found.CreatedAt) {
			cp := tx
			found = &cp
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) MarkSuccess(_ context.Context, id uuid.UUID, paymentID, signature string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailErr != nil {
		return false, s.FailErr
	}
	tx, ok := s.rows[id]
	if !ok || tx.Status != domain.StatusPending {
		return false, nil
	}
	tx.Status = domain.StatusSuccess
	tx.GatewayPaymentID = paymentID
	tx.GatewaySignature = signature
	tx.UpdatedAt = at
	s.rows[id] = tx
	s.Writes++
	return true, nil
}

func (s *MemoryStore) List(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	return s.filter(func(tx domain.Transaction) bool {
		return (f.GatewayOrderID == "" || tx.GatewayOrderID == f.GatewayOrderID) &&
			(f.GatewayPaymentID == "" || tx.GatewayPaymentID == f.GatewayPaymentID) &&
			(f.Status == "" || tx.Status == f.Status)
	}, -1), nil
}

func (s *MemoryStore) ListSuccessfulSince(_ context.Context, since time.Time, limit int) ([]domain.Transaction, error) {
	return s.filter(func(tx domain.Transaction) bool {
		return tx.Status == domain.StatusSuccess && !tx.CreatedAt.Before(since)
	}, limit), nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return s.FailErr
}

func (s *MemoryStore) filter(keep func(domain.Transaction) bool, limit int) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Transaction{}
	for _, tx := range s.rows {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
