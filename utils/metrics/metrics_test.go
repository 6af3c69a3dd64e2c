package metrics

import (
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbitrageMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewArbitrageMetrics("test_arb", reg)
	assert.NotNil(t, metrics)

	metrics.Cycles.Inc()
	metrics.Cycles.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Cycles))

	metrics.PruneVenue("sushiswap")
	metrics.PruneVenue("sushiswap")
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.PrunedVenues.WithLabelValues("sushiswap")))

	metrics.FetchRetry("uniswap", errors.New("timeout"))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FetchRetries.WithLabelValues("uniswap")))

	SetBigGauge(metrics.LastNetProfit, big.NewInt(-1500))
	assert.Equal(t, float64(-1500), testutil.ToFloat64(metrics.LastNetProfit))
	SetBigGauge(metrics.LastNetProfit, nil)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.LastNetProfit))

	metrics.ObserveEvaluation(3 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.OptimizerDuration))
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewArbitrageMetrics(DefaultNamespace, prometheus.NewRegistry())
	second := NewArbitrageMetrics(DefaultNamespace, prometheus.NewRegistry())

	first.Opportunities.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(first.Opportunities))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.Opportunities))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	metrics := NewArbitrageMetrics(DefaultNamespace, reg)
	metrics.Cycles.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "univ2_mev_cycles_total 1")
}
