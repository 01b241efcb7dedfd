package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/razorpay/razorpay-go"
)

// ErrReceiptTooLong is returned before any call when a receipt exceeds
// MaxReceiptLength.
var ErrReceiptTooLong = fmt.Errorf("razorpay: receipt longer than %d characters", MaxReceiptLength)

// Config holds the credentials and endpoint of the gateway account.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client wraps the Razorpay SDK client
type Client struct {
	api       *sdk.Client
	keyID     string
	keySecret string
}

// NewClient creates a new Razorpay client
func NewClient(cfg Config) *Client {
	api := sdk.NewClient(cfg.KeyID, cfg.KeySecret)

	if cfg.BaseURL != "" {
		api.Request.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	api.Request.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:       api,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

// OrderRequest describes an order to create. Amount is in minor units.
type OrderRequest struct {
	Amount         int64
	Currency       string
	Receipt        string
	PaymentCapture int
}

// Order represents a gateway order
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

type orderResult struct {
	body map[string]interface{}
	err  error
}

// CreateOrder creates an order for the given amount. The SDK call is not
// cancellable; ctx only stops the wait for it.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	if len(order.Receipt) > MaxReceiptLength {
		return nil, ErrReceiptTooLong
	}

	data := map[string]interface{}{
		"amount":          order.Amount,
		"currency":        order.Currency,
		"payment_capture": order.PaymentCapture,
	}
	if order.Receipt != "" {
		data["receipt"] = order.Receipt
	}

	done := make(chan orderResult, 1)
	go func() {
		body, err := c.api.Order.Create(data, nil)
		done <- orderResult{body: body, err: err}
	}()

	var res orderResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", res.err)
	}

	return decodeOrder(res.body)
}

// KeyID returns the public key id handed to checkout clients
func (c *Client) KeyID() string {
	return c.keyID
}

func decodeOrder(body map[string]interface{}) (*Order, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	var created Order
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if created.ID == "" {
		return nil, errors.New("razorpay: order response without id")
	}

	return &created, nil
}
