package razorpay

import (
	"errors"

	"github.com/razorpay/razorpay-go/utils"
)

// ErrSignatureMismatch is returned when a checkout signature does not verify.
var ErrSignatureMismatch = errors.New("razorpay: signature mismatch")

// VerifyPaymentSignature checks the signature the checkout returned after a
// successful payment against the account secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	return VerifyPaymentSignature(orderID, paymentID, signature, c.keySecret)
}

func VerifyPaymentSignature(orderID, paymentID, signature, secret string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureMismatch
	}

	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(params, signature, secret) {
		return ErrSignatureMismatch
	}

	return nil
}
