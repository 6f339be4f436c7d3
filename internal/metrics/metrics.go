package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of committed checkouts",
	})

	OrderLinesPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_lines_placed_total",
		Help: "Total number of committed order lines",
	})

	CheckoutFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Latency of checkout transactions including retries",
		Buckets: prometheus.DefBuckets,
	})

	StockDebitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_units_debited_total",
		Help: "Total units of stock debited by committed checkouts",
	})
)
