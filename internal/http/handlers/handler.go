package handlers

import (
	"payments_backend/internal/service"
)

type Handler struct {
	Payments *service.PaymentService
	Queries  *service.QueryService
}

func NewHandler(payments *service.PaymentService, queries *service.QueryService) *Handler {
	return &Handler{
		Payments: payments,
		Queries:  queries,
	}
}
