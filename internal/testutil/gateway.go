package testutil

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"payments_backend/internal/razorpay"
)

// SignPayment computes the checkout signature the gateway would return for
// an order/payment pair: hex(HMAC-SHA256(secret, order_id + "|" + payment_id)).
func SignPayment(orderID, paymentID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

// FakeGateway creates sequential orders and verifies signatures with the
// real gateway scheme against Secret.
type FakeGateway struct {
	mu        sync.Mutex
	Secret    string
	Orders    []razorpay.OrderRequest
	Verifies  int
	CreateErr error
}

func NewFakeGateway(secret string) *FakeGateway {
	return &FakeGateway{Secret: secret}
}

func (g *FakeGateway) CreateOrder(_ context.Context, order razorpay.OrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.Orders = append(g.Orders, order)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_test%04d", len(g.Orders)),
		Entity:   "order",
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   "created",
	}, nil
}

func (g *FakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	g.mu.Lock()
	g.Verifies++
	g.mu.Unlock()
	return razorpay.VerifyPaymentSignature(orderID, paymentID, signature, g.Secret)
}

// Sign returns a valid checkout signature for the pair.
func (g *FakeGateway) Sign(orderID, paymentID string) string {
	return SignPayment(orderID, paymentID, g.Secret)
}

func (g *FakeGateway) OrderCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Orders)
}
