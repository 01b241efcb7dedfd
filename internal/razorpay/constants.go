package razorpay

import "time"

const (
	// DefaultBaseURL is the live API host; the SDK appends the version path
	DefaultBaseURL = "https://api.razorpay.com"

	// DefaultTimeout bounds a single outbound call
	DefaultTimeout = 30 * time.Second

	// CaptureAutomatic asks the gateway to capture the payment on authorization
	CaptureAutomatic = 1

	// MaxReceiptLength is the longest receipt the orders API accepts
	MaxReceiptLength = 40
)
