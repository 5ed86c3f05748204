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
	// Signal metrics
	SignalsLoaded   prometheus.Counter
	SignalsRejected *prometheus.CounterVec

	// Price fetch metrics
	FetchRequestsTotal *prometheus.CounterVec
	FetchErrors        *prometheus.CounterVec
	FetchLatency       *prometheus.HistogramVec
	CandleCacheHits    prometheus.Counter
	CandleCacheMisses  prometheus.Counter

	// Backtest metrics
	SimulationsRun    *prometheus.CounterVec
	SimulationErrors  *prometheus.CounterVec
	BacktestDuration  *prometheus.HistogramVec
	DataCoveragePct   prometheus.Gauge
	TokensWithData    prometheus.Gauge
	TokensWithoutData prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_strategy_lab"
	}

	return &Metrics{
		// Signal metrics
		SignalsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "loaded_total",
			Help:      "Total number of signal records loaded",
		}),
		SignalsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "rejected_total",
			Help:      "Total number of signal records rejected by reason",
		}, []string{"reason"}),

		// Price fetch metrics
		FetchRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefetch",
			Name:      "requests_total",
			Help:      "Total number of price fetch requests by source",
		}, []string{"source"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefetch",
			Name:      "errors_total",
			Help:      "Total number of price fetch errors by type",
		}, []string{"error_type"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricefetch",
			Name:      "latency_seconds",
			Help:      "Price fetch request latency by source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		CandleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefetch",
			Name:      "cache_hits_total",
			Help:      "Total number of candle cache hits",
		}),
		CandleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefetch",
			Name:      "cache_misses_total",
			Help:      "Total number of candle cache misses",
		}),

		// Backtest metrics
		SimulationsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "simulations_total",
			Help:      "Total number of trade simulations by strategy",
		}, []string{"strategy"}),
		SimulationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "simulation_errors_total",
			Help:      "Total number of simulation errors by strategy",
		}, []string{"strategy"}),
		BacktestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest run duration by strategy",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"strategy"}),
		DataCoveragePct: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "data_coverage_percent",
			Help:      "Percentage of signals with usable price data",
		}),
		TokensWithData: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "tokens_with_data",
			Help:      "Number of tokens with price history",
		}),
		TokensWithoutData: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "tokens_without_data",
			Help:      "Number of tokens without price history",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration by database and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignalsLoaded adds to the signals loaded counter.
func RecordSignalsLoaded(n int) {
	DefaultMetrics.SignalsLoaded.Add(float64(n))
}

// RecordSignalRejected records a rejected signal record.
func RecordSignalRejected(reason string) {
	DefaultMetrics.SignalsRejected.WithLabelValues(reason).Inc()
}

// RecordFetch records a price fetch request.
func RecordFetch(source string, seconds float64, err error) {
	DefaultMetrics.FetchRequestsTotal.WithLabelValues(source).Inc()
	DefaultMetrics.FetchLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		DefaultMetrics.FetchErrors.WithLabelValues("fetch").Inc()
	}
}

// RecordCacheHit records a candle cache hit.
func RecordCacheHit() {
	DefaultMetrics.CandleCacheHits.Inc()
}

// RecordCacheMiss records a candle cache miss.
func RecordCacheMiss() {
	DefaultMetrics.CandleCacheMisses.Inc()
}

// RecordSimulation records a completed trade simulation.
func RecordSimulation(strategy string) {
	DefaultMetrics.SimulationsRun.WithLabelValues(strategy).Inc()
}

// RecordSimulationError records a failed trade simulation.
func RecordSimulationError(strategy string) {
	DefaultMetrics.SimulationErrors.WithLabelValues(strategy).Inc()
}

// RecordBacktest records a backtest run for one strategy.
func RecordBacktest(strategy string, seconds float64) {
	DefaultMetrics.BacktestDuration.WithLabelValues(strategy).Observe(seconds)
}

// UpdateDataCoverage updates the data coverage gauges.
func UpdateDataCoverage(withData, withoutData int, coveragePct float64) {
	DefaultMetrics.TokensWithData.Set(float64(withData))
	DefaultMetrics.TokensWithoutData.Set(float64(withoutData))
	DefaultMetrics.DataCoveragePct.Set(coveragePct)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
