package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PaymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Order initiation attempts by result",
		},
		[]string{"result"},
	)
	PaymentsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Payment confirmation attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(PaymentsInitiated)
	prometheus.MustRegister(PaymentsConfirmed)
}
