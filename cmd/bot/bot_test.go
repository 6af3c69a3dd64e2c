package bot

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/types"
	"github.com/0xDualCube/univ2-mev/utils/metrics"
)

type scriptedDetector struct {
	mu      sync.Mutex
	results []*types.ArbitrageResult
	errs    []error
	calls   int
}

func (d *scriptedDetector) Detect(ctx context.Context) (*types.ArbitrageResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	return d.results[i], d.errs[i]
}

func (d *scriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type recordingSink struct {
	mu      sync.Mutex
	records []report.Record
}

func (s *recordingSink) Publish(_ context.Context, record report.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func result(net int64, venue string) *types.ArbitrageResult {
	forward := types.NewAllocationPlan(types.QuoteToOther, big.NewInt(1_000))
	forward.Allocations[venue] = big.NewInt(1_000)
	forward.AmountOut = big.NewInt(500)
	reverse := types.NewAllocationPlan(types.OtherToQuote, big.NewInt(500))
	reverse.Allocations[venue] = big.NewInt(500)
	reverse.AmountOut = big.NewInt(1_000 + net + 20)

	return &types.ArbitrageResult{
		PlanForward: forward,
		PlanReverse: reverse,
		SwapCount:   2,
		AmountIn:    big.NewInt(1_000),
		AmountBack:  big.NewInt(1_000 + net + 20),
		GrossProfit: big.NewInt(net + 20),
		PerSwapCost: big.NewInt(10),
		NetProfit:   big.NewInt(net),
		BlockNumber: 100,
	}
}

func newTestBot(t *testing.T, detector Detector, threshold int64) (*Bot, *recordingSink, *metrics.ArbitrageMetrics) {
	t.Helper()
	sink := &recordingSink{}
	m := metrics.NewArbitrageMetrics("test_bot", prometheus.NewRegistry())
	b, err := New(Config{
		PollInterval:       time.Millisecond,
		MinProfitThreshold: big.NewInt(threshold),
		Units:              report.Units{QuoteSymbol: "DAI", OtherSymbol: "WETH"},
	}, detector, sink, m, zap.NewNop())
	require.NoError(t, err)
	return b, sink, m
}

func TestRunOncePublishesAndSuppressesDuplicates(t *testing.T) {
	detector := &scriptedDetector{
		results: []*types.ArbitrageResult{result(50, "uniswap"), result(50, "uniswap"), result(70, "sushiswap"), result(-5, "uniswap"), result(3, "uniswap")},
		errs:    make([]error, 5),
	}
	b, sink, m := newTestBot(t, detector, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.RunOnce(ctx))
	}

	require.Len(t, sink.records, 2)
	assert.Equal(t, "50", sink.records[0].NetProfit)
	assert.Equal(t, "70", sink.records[1].NetProfit)

	assert.Equal(t, float64(5), testutil.ToFloat64(m.Cycles))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.Opportunities))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Published))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.LastNetProfit))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.LastSwapCount))
	assert.Equal(t, float64(100), testutil.ToFloat64(m.LastBlock))
}

func TestRunOnceCountsFailures(t *testing.T) {
	detector := &scriptedDetector{
		results: []*types.ArbitrageResult{nil},
		errs:    []error{types.ErrUnavailableVenue},
	}
	b, sink, m := newTestBot(t, detector, 0)

	err := b.RunOnce(context.Background())
	assert.ErrorIs(t, err, types.ErrUnavailableVenue)
	assert.Empty(t, sink.records)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FailedCycles))
}

func TestStartStop(t *testing.T) {
	detector := &scriptedDetector{
		results: []*types.ArbitrageResult{nil, result(50, "uniswap")},
		errs:    []error{errors.New("transient"), nil},
	}
	b, _, m := newTestBot(t, detector, 0)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Start(ctx))

	assert.Eventually(t, func() bool { return detector.Calls() >= 3 }, time.Second, time.Millisecond)
	cancel()
	b.Stop()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FailedCycles))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Published))
}

func TestNewValidation(t *testing.T) {
	m := metrics.NewArbitrageMetrics("test_bot_new", prometheus.NewRegistry())

	_, err := New(Config{PollInterval: time.Second}, nil, &recordingSink{}, m, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(Config{}, &scriptedDetector{}, &recordingSink{}, m, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
