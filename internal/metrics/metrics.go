package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Wallet
	WalletMovementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_movements_total",
			Help: "Applied wallet movements",
		},
		[]string{"type"}, // credit|debit
	)
	WalletMovementCents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_movement_cents_total",
			Help: "Sum of applied wallet movements in cents",
		},
		[]string{"type"},
	)

	// Top-ups
	TopupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topups_total",
			Help: "Top-up state transitions",
		},
		[]string{"result"}, // created|rejected|rolled_back|credited|expired
	)
	PendingTopups = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topups_pending",
			Help: "Top-ups waiting for payment confirmation",
		},
	)
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)
	ProviderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_provider_request_seconds",
			Help:    "Latency of create-payment calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Checkout
	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by result",
		},
		[]string{"result"},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

var Handler = promhttp.Handler

// Init registers every collector once; later calls are no-ops.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestLatency,
			WalletMovementsTotal,
			WalletMovementCents,
			TopupsTotal,
			PendingTopups,
			WebhooksTotal,
			ProviderLatency,
			CheckoutsTotal,
			WorkerQueueDepth,
		)
	})
}
