package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PriceUpstreamRequests tracks price API requests by outcome.
	PriceUpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwa_price_upstream_requests_total",
			Help: "The total number of requests issued to the upstream price API",
		},
		[]string{"endpoint", "status"}, // simple_price/market_chart/global/trending, success/failed
	)

	// PriceCacheLookups tracks quote cache hits and misses by tier.
	PriceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwa_price_cache_lookups_total",
			Help: "Quote cache lookups by resolution tier",
		},
		[]string{"tier"}, // fresh, stale, static, miss
	)

	// RPCCalls tracks JSON-RPC reads against blockchain nodes by outcome.
	RPCCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwa_rpc_calls_total",
			Help: "The total number of JSON-RPC calls to blockchain nodes",
		},
		[]string{"network", "status"},
	)

	// AggregationSeconds tracks time spent producing one aggregate.
	AggregationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rwa_aggregation_seconds",
			Help:    "Time taken to produce one cached aggregate",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"}, // portfolio, market, metrics, loans
	)

	// WalletTransitions tracks session state transitions.
	WalletTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwa_wallet_transitions_total",
			Help: "Wallet session state transitions",
		},
		[]string{"transition"}, // connect, disconnect, account_change, chain_change
	)
)

// RecordUpstreamRequest records a price API request with the given outcome.
func RecordUpstreamRequest(endpoint, status string) {
	PriceUpstreamRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordCacheLookup records the tier a quote lookup resolved at.
func RecordCacheLookup(tier string) {
	PriceCacheLookups.WithLabelValues(tier).Inc()
}

// RecordRPCCall records a JSON-RPC call with the given outcome.
func RecordRPCCall(network, status string) {
	RPCCalls.WithLabelValues(network, status).Inc()
}

// RecordWalletTransition records one session transition.
func RecordWalletTransition(transition string) {
	WalletTransitions.WithLabelValues(transition).Inc()
}
