package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"payments_backend/internal/domain"
	"payments_backend/internal/testutil"
)

const testSecret = "test-key-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func newTestPaymentService() (*PaymentService, *testutil.MemoryStore, *testutil.FakeGateway, *recordingPublisher) {
	store := testutil.NewMemoryStore()
	gw := testutil.NewFakeGateway(testSecret)
	pub := &recordingPublisher{}
	svc := NewPaymentService(store, gw, PaymentConfig{KeyID: "rzp_test_key", Currency: "INR"}, pub)
	return svc, store, gw, pub
}

func TestInitiate_InvalidAmountHasNoSideEffects(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "Amount is required"},
		{"   ", "Amount is required"},
		{"abc", "Invalid amount format"},
		{"12,50", "Invalid amount format"},
		{"0", "Amount must be greater than 0"},
		{"-5", "Amount must be greater than 0"},
		{"0.001", "Amount must be greater than 0"},
		{"100000000", "Amount must not exceed 99999999.99"},
		{"1e40000000", "Amount must not exceed 99999999.99"},
		{"0e40000000", "Amount must be greater than 0"},
		{"1e-40000000", "Invalid amount format"},
		{"1000000000000000000000000000000000", "Invalid amount format"},
	}

	for _, tc := range cases {
		svc, store, gw, _ := newTestPaymentService()

		_, err := svc.Initiate(context.Background(), tc.raw)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Initiate(%q): expected validation error, got %v", tc.raw, err)
		}
		if err.Error() != tc.want {
			t.Fatalf("Initiate(%q): message = %q; want %q", tc.raw, err.Error(), tc.want)
		}
		if gw.OrderCount() != 0 {
			t.Fatalf("Initiate(%q): gateway called %d times", tc.raw, gw.OrderCount())
		}
		if store.Writes != 0 {
			t.Fatalf("Initiate(%q): store written %d times", tc.raw, store.Writes)
		}
	}
}

func TestInitiate_StoresMinorUnitsSentToGateway(t *testing.T) {
	cases := []struct {
		raw   string
		minor int64
		fixed string
	}{
		{"500", 50000, "500.00"},
		{"10.1", 1010, "10.10"},
		{"0.29", 29, "0.29"},
		{"19.999", 2000, "20.00"},
		{"1e2", 10000, "100.00"},
		{"99999999.99", 9999999999, "99999999.99"},
	}

	for _, tc := range cases {
		svc, store, gw, _ := newTestPaymentService()

		res, err := svc.Initiate(context.Background(), tc.raw)
		if err != nil {
			t.Fatalf("Initiate(%q): %v", tc.raw, err)
		}
		if res.AmountMinorUnits != tc.minor {
			t.Fatalf("Initiate(%q): minor = %d; want %d", tc.raw, res.AmountMinorUnits, tc.minor)
		}
		if res.KeyID != "rzp_test_key" {
			t.Fatalf("key id = %q", res.KeyID)
		}

		if gw.OrderCount() != 1 {
			t.Fatalf("expected one gateway call, got %d", gw.OrderCount())
		}
		sent := gw.Orders[0]
		if sent.Amount != tc.minor || sent.Currency != "INR" || sent.PaymentCapture != 1 {
			t.Fatalf("unexpected order request %+v", sent)
		}

		stored, err := store.GetByOrderID(context.Background(), res.OrderID)
		if err != nil {
			t.Fatalf("stored transaction: %v", err)
		}
		if stored.AmountMinorUnits != sent.Amount {
			t.Fatalf("stored minor %d != sent %d", stored.AmountMinorUnits, sent.Amount)
		}
		if stored.Amount.StringFixed(2) != tc.fixed {
			t.Fatalf("stored amount = %s; want %s", stored.Amount.StringFixed(2), tc.fixed)
		}
		if stored.Status != domain.StatusPending {
			t.Fatalf("status = %s; want pending", stored.Status)
		}
		if sent.Receipt != stored.ID.String() {
			t.Fatalf("receipt %q does not match transaction id %s", sent.Receipt, stored.ID)
		}
	}
}

func TestInitiate_GatewayErrorWritesNothing(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	gw.CreateErr = errors.New("connection refused")

	_, err := svc.Initiate(context.Background(), "100")
	if !errors.Is(err, domain.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if store.Writes != 0 {
		t.Fatalf("store written on gateway failure")
	}
}

func initiate(t *testing.T, svc *PaymentService, amount string) *InitiateResult {
	t.Helper()
	res, err := svc.Initiate(context.Background(), amount)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return res
}

func TestConfirm_TransitionsOnceAndRepeatsIdempotently(t *testing.T) {
	svc, store, gw, pub := newTestPaymentService()
	res := initiate(t, svc, "250.50")

	req := ConfirmRequest{OrderID: res.OrderID, PaymentID: "pay_1", Signature: gw.Sign(res.OrderID, "pay_1")}

	tx, err := svc.Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if tx.Status != domain.StatusSuccess || tx.GatewayPaymentID != "pay_1" || tx.GatewaySignature != req.Signature {
		t.Fatalf("unexpected confirmed transaction %+v", tx)
	}
	writes := store.Writes

	again, err := svc.Confirm(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if again.ID != tx.ID || again.Status != domain.StatusSuccess {
		t.Fatalf("repeat returned %+v", again)
	}
	if store.Writes != writes {
		t.Fatalf("repeat confirm wrote to the store")
	}
	if len(pub.events) != 1 || pub.events[0] != EventPaymentConfirmed {
		t.Fatalf("expected exactly one confirmed event, got %v", pub.events)
	}
}

func TestConfirm_NormalizesSignatureBeforeStoring(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	res := initiate(t, svc, "10")
	sig := gw.Sign(res.OrderID, "pay_1")

	padded := ConfirmRequest{OrderID: res.OrderID, PaymentID: "pay_1", Signature: "  " + strings.ToUpper(sig) + "\n"}
	tx, err := svc.Confirm(context.Background(), padded)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if tx.GatewaySignature != sig {
		t.Fatalf("stored signature = %q; want %q", tx.GatewaySignature, sig)
	}

	plain := ConfirmRequest{OrderID: res.OrderID, PaymentID: "pay_1", Signature: sig}
	if _, err := svc.Confirm(context.Background(), plain); err != nil {
		t.Fatalf("repeat with normalized signature: %v", err)
	}

	stored, _ := store.GetByOrderID(context.Background(), res.OrderID)
	if stored.GatewaySignature != sig {
		t.Fatalf("persisted signature = %q", stored.GatewaySignature)
	}
}

func TestConfirm_DifferentPaymentAfterSuccessIsRejected(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	res := initiate(t, svc, "10")

	first := ConfirmRequest{OrderID: res.OrderID, PaymentID: "pay_1", Signature: gw.Sign(res.OrderID, "pay_1")}
	if _, err := svc.Confirm(context.Background(), first); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	second := ConfirmRequest{OrderID: res.OrderID, PaymentID: "pay_2", Signature: gw.Sign(res.OrderID, "pay_2")}
	if _, err := svc.Confirm(context.Background(), second); !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	stored, _ := store.GetByOrderID(context.Background(), res.OrderID)
	if stored.GatewayPaymentID != "pay_1" {
		t.Fatalf("payment id overwritten: %s", stored.GatewayPaymentID)
	}
}

func TestConfirm_ConcurrentCallsTransitionExactlyOnce(t *testing.T) {
	svc, store, gw, pub := newTestPaymentService()
	res := initiate(t, svc, "99.99")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), ConfirmRequest{
				OrderID:   res.OrderID,
				PaymentID: "pay_race",
				Signature: gw.Sign(res.OrderID, "pay_race"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent confirm: %v", err)
		}
	}
	// one insert plus one transition
	if store.Writes != 2 {
		t.Fatalf("expected 2 writes, got %d", store.Writes)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	if svc.locks.size() != 0 {
		t.Fatalf("order locks leaked: %d", svc.locks.size())
	}
}

func TestConfirm_ConcurrentDifferentPaymentsOnlyOneWins(t *testing.T) {
	svc, _, gw, _ := newTestPaymentService()
	res := initiate(t, svc, "5")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, rejected := 0, 0

	for _, pid := range []string{"pay_a", "pay_b", "pay_c", "pay_d"} {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), ConfirmRequest{
				OrderID: res.OrderID, PaymentID: pid, Signature: gw.Sign(res.OrderID, pid),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrNotPending):
				rejected++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(pid)
	}
	wg.Wait()

	if wins != 1 || rejected != 3 {
		t.Fatalf("wins=%d rejected=%d; want 1/3", wins, rejected)
	}
}

func TestConfirm_TamperedSignatureMutatesNothing(t *testing.T) {
	svc, store, gw, pub := newTestPaymentService()
	res := initiate(t, svc, "42")
	writes := store.Writes

	sig := gw.Sign(res.OrderID, "pay_1")
	tampered := []ConfirmRequest{
		{OrderID: res.OrderID, PaymentID: "pay_1", Signature: "deadbeef"},
		{OrderID: res.OrderID, PaymentID: "pay_2", Signature: sig},
		{OrderID: res.OrderID, PaymentID: "pay_1", Signature: gw.Sign(res.OrderID, "pay_1") + "00"},
	}

	for _, req := range tampered {
		if _, err := svc.Confirm(context.Background(), req); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature for %+v, got %v", req, err)
		}
	}

	if store.Writes != writes {
		t.Fatalf("store mutated by tampered confirmation")
	}
	stored, _ := store.GetByOrderID(context.Background(), res.OrderID)
	if stored.Status != domain.StatusPending || stored.GatewayPaymentID != "" {
		t.Fatalf("transaction changed: %+v", stored)
	}
	if len(pub.events) != 0 {
		t.Fatalf("events published for tampered signature")
	}
}

func TestConfirm_UnknownOrderMutatesNothing(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	initiate(t, svc, "42")
	writes := store.Writes

	req := ConfirmRequest{OrderID: "order_missing", PaymentID: "pay_1", Signature: gw.Sign("order_missing", "pay_1")}
	if _, err := svc.Confirm(context.Background(), req); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if store.Writes != writes {
		t.Fatalf("store mutated for unknown order")
	}
}

func TestConfirm_MissingFields(t *testing.T) {
	svc, _, gw, _ := newTestPaymentService()

	_, err := svc.Confirm(context.Background(), ConfirmRequest{OrderID: "order_1", PaymentID: "pay_1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.Verifies != 0 {
		t.Fatalf("signature verified despite missing fields")
	}
}

func TestConfirm_StoreErrorIsUnexpected(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	res := initiate(t, svc, "42")
	store.FailErr = errors.New("disk full")

	_, err := svc.Confirm(context.Background(), ConfirmRequest{
		OrderID: res.OrderID, PaymentID: "pay_1", Signature: gw.Sign(res.OrderID, "pay_1"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, known := range []error{domain.ErrValidation, domain.ErrInvalidSignature, domain.ErrTransactionNotFound, domain.ErrNotPending} {
		if errors.Is(err, known) {
			t.Fatalf("store failure classified as %v", known)
		}
	}
}

func TestConfirm_UsesLatestTransactionForDuplicateOrderIDs(t *testing.T) {
	svc, store, gw, _ := newTestPaymentService()
	now := time.Now().UTC()
	store.Seed(
		domain.Transaction{GatewayOrderID: "order_dup", Status: domain.StatusPending, CreatedAt: now.Add(-time.Hour)},
		domain.Transaction{GatewayOrderID: "order_dup", Status: domain.StatusPending, CreatedAt: now},
	)

	tx, err := svc.Confirm(context.Background(), ConfirmRequest{
		OrderID: "order_dup", PaymentID: "pay_1", Signature: gw.Sign("order_dup", "pay_1"),
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !tx.CreatedAt.Equal(now) {
		t.Fatalf("confirmed the older duplicate")
	}
}
