package handlers

import (
	"errors"
	"net/http"

	"payments_backend/internal/domain"
	"payments_backend/internal/logger"
	"payments_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ListTransactions GET /transactions/?order_id=&status=&payment_id=
func (h *Handler) ListTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	filter, err := service.ParseListFilter(c.Query("order_id"), c.Query("status"), c.Query("payment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txs, err := h.Queries.List(ctx, filter)
	if err != nil {
		logger.WithContext(ctx).Error("list transactions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}

	out := make([]PaymentResponse, 0, len(txs))
	for i := range txs {
		out = append(out, newPaymentResponse(&txs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetTransaction GET /transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	ctx := c.Request.Context()

	tx, err := h.Queries.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		logger.WithContext(ctx).Error("get transaction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transaction"})
		return
	}

	c.JSON(http.StatusOK, newPaymentResponse(tx))
}

// TransactionDetails GET /transaction-details/?hours=24&limit=10
func (h *Handler) TransactionDetails(c *gin.Context) {
	ctx := c.Request.Context()

	q, err := service.ParseRecentQuery(c.Query("hours"), c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	txs, err := h.Queries.Recent(ctx, q)
	if err != nil {
		logger.WithContext(ctx).Error("transaction details failed", "error", err, "hours", q.Hours, "limit", q.Limit)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "An error occurred while fetching transaction details",
		})
		return
	}

	out := make([]RecentTransaction, 0, len(txs))
	for i := range txs {
		out = append(out, newRecentTransaction(&txs[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"count":        len(out),
		"transactions": out,
	})
}
