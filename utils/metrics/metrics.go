package metrics

import (
	"math/big"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "univ2_mev"

// NewRegistry returns a registry carrying the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Handler exposes a registry over HTTP
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

type ArbitrageMetrics struct {
	Cycles            prometheus.Counter
	FailedCycles      prometheus.Counter
	Opportunities     prometheus.Counter
	Published         prometheus.Counter
	LastNetProfit     prometheus.Gauge
	LastSwapCount     prometheus.Gauge
	LastBlock         prometheus.Gauge
	LastSwapCost      prometheus.Gauge
	PrunedVenues      *prometheus.CounterVec
	FetchRetries      *prometheus.CounterVec
	OptimizerDuration prometheus.Histogram
	CycleDuration     prometheus.Histogram
}

func NewArbitrageMetrics(namespace string, reg prometheus.Registerer) *ArbitrageMetrics {
	factory := promauto.With(reg)
	return &ArbitrageMetrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of evaluation cycles",
		}),
		FailedCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_cycles_total",
			Help:      "Total number of cycles abandoned on error",
		}),
		Opportunities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opportunities_total",
			Help:      "Total number of cycles with positive net profit",
		}),
		Published: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_results_total",
			Help:      "Total number of results sent to sinks",
		}),
		LastNetProfit: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_net_profit",
			Help:      "Net profit of the latest cycle in base units of the input asset",
		}),
		LastSwapCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_swap_count",
			Help:      "Swaps needed by the latest round trip",
		}),
		LastBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_block",
			Help:      "Block number of the latest snapshot",
		}),
		LastSwapCost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_per_swap_cost",
			Help:      "Cost of one swap in the latest cycle, in base units of the input asset",
		}),
		PrunedVenues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_venues_total",
			Help:      "Venues dropped from a plan because their swap cost exceeded their contribution",
		}, []string{"venue"}),
		FetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Reserve fetch retries by venue",
		}, []string{"venue"}),
		OptimizerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time taken to evaluate one round trip",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken by one full cycle including RPC calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveEvaluation records the duration of one evaluator run
func (m *ArbitrageMetrics) ObserveEvaluation(d time.Duration) {
	m.OptimizerDuration.Observe(d.Seconds())
}

// PruneVenue counts one pruned venue
func (m *ArbitrageMetrics) PruneVenue(venue string) {
	m.PrunedVenues.WithLabelValues(venue).Inc()
}

// FetchRetry counts one reserve fetch retry
func (m *ArbitrageMetrics) FetchRetry(venue string, _ error) {
	m.FetchRetries.WithLabelValues(venue).Inc()
}

// SetBigGauge sets g to x; precision loss is acceptable for display
func SetBigGauge(g prometheus.Gauge, x *big.Int) {
	if x == nil {
		g.Set(0)
		return
	}
	f, _ := new(big.Float).SetInt(x).Float64()
	g.Set(f)
}
