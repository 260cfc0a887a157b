package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orca_router_pool_count",
		Help: "Total number of pools in the loaded catalog",
	})

	RouteCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orca_router_route_count",
		Help: "Total number of token pairs with at least one route",
	})

	TokenCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orca_router_token_count",
		Help: "Total number of tokens in the loaded catalog",
	})

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_router_catalog_loads_total",
			Help: "Total number of catalog loads by source",
		},
		[]string{"source", "status"},
	)

	// Balance cache metrics
	BalanceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orca_router_balance_cache_hits_total",
		Help: "Total number of reserve balance cache hits",
	})

	BalanceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orca_router_balance_cache_misses_total",
		Help: "Total number of reserve balance cache misses",
	})

	BalanceCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orca_router_balance_cache_size",
		Help: "Current number of reserve accounts in the balance cache",
	})

	BalanceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_router_balance_fetches_total",
			Help: "Total number of reserve balance fetches issued",
		},
		[]string{"status"},
	)

	BalanceFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orca_router_balance_fetch_duration_seconds",
		Help:    "Reserve balance fetch duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// Routing metrics
	CandidatesResolved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orca_router_candidates_resolved",
		Help:    "Number of oriented candidates produced per resolution",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	CandidatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_router_candidates_dropped_total",
			Help: "Total number of route candidates dropped during resolution",
		},
		[]string{"reason"},
	)

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orca_router_resolve_duration_seconds",
		Help:    "Route resolution duration in seconds, balance fetches included",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_router_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"swap_mode", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_router_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"swap_mode"},
	)

	QuoteHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orca_router_quote_hops",
		Help:    "Number of pools in the selected route",
		Buckets: []float64{1, 2},
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_router_price_impact_bps",
			Help:    "Price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	NegativePriceImpact = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orca_router_negative_price_impact_total",
		Help: "Total number of quotes whose output beat the fee-adjusted reference",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orca_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orca_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orca_router_http_in_flight_requests",
		Help: "Number of HTTP requests currently being served",
	})

	HTTPRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orca_router_http_rate_limited_total",
		Help: "Total number of HTTP requests rejected by the per-IP limiter",
	})
)
