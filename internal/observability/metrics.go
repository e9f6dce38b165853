// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Sync metrics
	WalletsSynced      *prometheus.CounterVec
	TradesUpserted     prometheus.Counter
	SyncDuration       prometheus.Histogram
	LastSuccessfulSync prometheus.Gauge

	// Transaction metrics
	TransactionsProcessed prometheus.Counter
	TransactionsSkipped   *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_sync"
	}

	return &Metrics{
		WalletsSynced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "wallets_total",
			Help:      "Total number of wallet syncs by outcome",
		}, []string{"status"}),
		TradesUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "trades_upserted_total",
			Help:      "Total number of trade rows written",
		}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "wallet_duration_seconds",
			Help:      "Duration of a single wallet sync",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last fully successful wallet sync",
		}),
		TransactionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions folded into trade aggregates",
		}),
		TransactionsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_skipped_total",
			Help:      "Total number of transactions skipped by reason",
		}, []string{"reason"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Solana RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database errors by operation",
		}, []string{"operation"}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWalletSynced records a wallet sync outcome ("success" or "error").
func RecordWalletSynced(status string) {
	DefaultMetrics.WalletsSynced.WithLabelValues(status).Inc()
}

// RecordTradesUpserted adds to the trade row write counter.
func RecordTradesUpserted(n int) {
	DefaultMetrics.TradesUpserted.Add(float64(n))
}

// RecordSyncDuration records how long one wallet sync took.
func RecordSyncDuration(seconds float64) {
	DefaultMetrics.SyncDuration.Observe(seconds)
}

// MarkSyncSuccess sets the last-successful-sync gauge to now.
func MarkSyncSuccess(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulSync.Set(unixSeconds)
}

// RecordTransactionProcessed increments the processed transaction counter.
func RecordTransactionProcessed() {
	DefaultMetrics.TransactionsProcessed.Inc()
}

// RecordTransactionSkipped increments the skipped transaction counter.
func RecordTransactionSkipped(reason string) {
	DefaultMetrics.TransactionsSkipped.WithLabelValues(reason).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBError records a database error.
func RecordDBError(operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
}
