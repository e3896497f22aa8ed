package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_build_info",
			Help: "Build information of the restaking ledger daemon",
		},
		[]string{"version", "commit", "date"},
	)

	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaked_transactions_total",
			Help: "Total number of submitted transactions by type and result",
		},
		[]string{"tx_type", "result"},
	)

	TransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaked_transaction_duration_seconds",
			Help:    "Duration of transaction application including commit",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		},
		[]string{"tx_type"},
	)

	BackingSolValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_backing_sol_value",
			Help: "SOL value backing the pool-share supply, in lamports",
		},
		[]string{"main"},
	)

	ShareSupply = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_share_supply",
			Help: "Outstanding pool-share supply",
		},
		[]string{"main"},
	)

	OutstandingTicketsSolValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_outstanding_tickets_sol_value",
			Help: "SOL value owed to open unstake tickets, in lamports",
		},
		[]string{"main"},
	)

	VaultLstAmount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_vault_lst_amount",
			Help: "LST held by a vault, split by location",
		},
		[]string{"lst_mint", "location"},
	)

	VaultPriceScaled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaked_vault_price_scaled",
			Help: "Cached LST/SOL price of a vault, scaled by 2^32",
		},
		[]string{"lst_mint"},
	)

	CrankRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaked_crank_runs_total",
			Help: "Total number of crank passes",
		},
		[]string{"crank", "status"},
	)

	CrankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaked_crank_duration_seconds",
			Help:    "Duration of crank passes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4.1s
		},
		[]string{"crank"},
	)

	StoreCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaked_store_cache_total",
			Help: "Ledger store cache lookups",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaked_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaked_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
