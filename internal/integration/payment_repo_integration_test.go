package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"payments_backend/internal/domain"
	"payments_backend/internal/repository"
	"payments_backend/internal/service"
	"payments_backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

func TestPaymentRepository_Lifecycle(t *testing.T) {
	db := connect(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()

	orderID := "order_it_" + uuid.NewString()[:8]
	tx := &domain.Transaction{
		ID:               uuid.New(),
		GatewayOrderID:   orderID,
		Amount:           decimal.RequireFromString("1234.50"),
		AmountMinorUnits: 123450,
		Currency:         "INR",
		Status:           domain.StatusPending,
	}
	if err := repo.Create(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.CreatedAt.IsZero() {
		t.Fatalf("created_at not returned")
	}

	got, err := repo.GetByOrderID(ctx, orderID)
	if err != nil {
		t.Fatalf("get by order: %v", err)
	}
	if got.ID != tx.ID || !got.Amount.Equal(tx.Amount) || got.Status != domain.StatusPending {
		t.Fatalf("unexpected row %+v", got)
	}

	ok, err := repo.MarkSuccess(ctx, tx.ID, "pay_it", "sig_it", time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("mark success = %v, %v", ok, err)
	}
	ok, err = repo.MarkSuccess(ctx, tx.ID, "pay_other", "sig_other", time.Now().UTC())
	if err != nil || ok {
		t.Fatalf("second mark success = %v, %v", ok, err)
	}

	list, err := repo.List(ctx, repository.TransactionFilter{GatewayOrderID: orderID, Status: domain.StatusSuccess})
	if err != nil || len(list) != 1 || list[0].GatewayPaymentID != "pay_it" {
		t.Fatalf("list = %+v, %v", list, err)
	}

	recent, err := repo.ListSuccessfulSince(ctx, time.Now().Add(-time.Hour), 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	found := false
	for _, r := range recent {
		if r.ID == tx.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("confirmed transaction missing from recent view")
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Two service instances stand in for two server processes: they share the
// database but not the in-process lock.
func TestConfirm_AcrossInstancesTransitionsOnce(t *testing.T) {
	db := connect(t)
	repo := repository.NewPaymentRepository(db)
	ctx := context.Background()

	gw := testutil.NewFakeGateway("it-secret")
	cfg := service.PaymentConfig{KeyID: "rzp_it", Currency: "INR"}
	a := service.NewPaymentService(repo, gw, cfg, nil)
	b := service.NewPaymentService(repo, gw, cfg, nil)

	res, err := a.Initiate(ctx, "99.90")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, conflicted int
	for i := 0; i < 10; i++ {
		svc := a
		if i%2 == 1 {
			svc = b
		}
		paymentID := "pay_" + uuid.NewString()[:8]
		req := service.ConfirmRequest{
			OrderID:   res.OrderID,
			PaymentID: paymentID,
			Signature: gw.Sign(res.OrderID, paymentID),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrNotPending):
				conflicted++
			default:
				t.Errorf("confirm: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicted != 9 {
		t.Fatalf("succeeded=%d conflicted=%d; want 1 and 9", succeeded, conflicted)
	}
}
