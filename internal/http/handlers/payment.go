package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"payments_backend/internal/domain"
	"payments_backend/internal/logger"
	"payments_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// InitiateRequest accepts the amount as a JSON number or a numeric string.
type InitiateRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// rawAmount returns the amount text without losing precision to float64.
func (r InitiateRequest) rawAmount() (string, error) {
	raw := bytes.TrimSpace(r.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}

// Initiate POST /initiate/
func (h *Handler) Initiate(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx)

	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("initiate payment rejected", "reason", "invalid body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	amount, err := req.rawAmount()
	if err != nil {
		log.Warn("initiate payment rejected", "reason", "invalid amount", "amount", string(req.Amount))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount format"})
		return
	}

	res, err := h.Payments.Initiate(ctx, amount)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Warn("initiate payment rejected", "reason", verr.Msg, "amount", amount)
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
		case errors.Is(err, domain.ErrGateway):
			log.Error("order creation failed", "error", err, "amount", amount)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error("initiate payment failed", "error", err, "amount", amount)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not record transaction"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id": res.OrderID,
		"amount":   res.AmountMinorUnits,
		"key":      res.KeyID,
	})
}

type SuccessRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

func confirmError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": "error", "message": msg})
}

// Success POST /success/
func (h *Handler) Success(c *gin.Context) {
	ctx := c.Request.Context()

	var req SuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) || errors.Is(err, io.EOF) {
			confirmError(c, http.StatusBadRequest, service.MsgConfirmFieldsRequired)
			return
		}
		confirmError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.Payments.Confirm(ctx, service.ConfirmRequest{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			confirmError(c, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrInvalidSignature):
			confirmError(c, http.StatusBadRequest, "Invalid signature")
		case errors.Is(err, domain.ErrTransactionNotFound):
			confirmError(c, http.StatusBadRequest, "Invalid order ID")
		case errors.Is(err, domain.ErrNotPending):
			confirmError(c, http.StatusConflict, "Payment already confirmed")
		default:
			logger.WithContext(ctx).Error("payment confirmation failed", "error", err, "order_id", req.RazorpayOrderID)
			confirmError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Payment verified successfully",
		"payment": newPaymentResponse(tx),
	})
}
