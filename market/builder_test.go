package market

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/dex"
	"github.com/0xDualCube/univ2-mev/types"
)

type fakeSource struct {
	mu       sync.Mutex
	block    uint64
	reserves map[string]*dex.Reserves
	failures map[string]int // remaining transient failures per venue
	calls    map[string]int
	blocks   []uint64
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		block: 100,
		reserves: map[string]*dex.Reserves{
			"uniswap":   {Quote: big.NewInt(1_000_000), Other: big.NewInt(500)},
			"sushiswap": {Quote: big.NewInt(2_000_000), Other: big.NewInt(900)},
		},
		failures: map[string]int{},
		calls:    map[string]int{},
	}
}

func (f *fakeSource) BlockNumber(ctx context.Context) (uint64, error) {
	return f.block, nil
}

func (f *fakeSource) FetchReserves(ctx context.Context, venue dex.Venue, block *big.Int) (*dex.Reserves, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[venue.Name]++
	f.blocks = append(f.blocks, block.Uint64())
	if f.failures[venue.Name] > 0 {
		f.failures[venue.Name]--
		return nil, errors.New("timeout")
	}
	r, ok := f.reserves[venue.Name]
	if !ok {
		return nil, errors.New("no such pair")
	}
	return &dex.Reserves{Quote: new(big.Int).Set(r.Quote), Other: new(big.Int).Set(r.Other), BlockNumber: block.Uint64()}, nil
}

func testVenues() []dex.Venue {
	return []dex.Venue{
		{Name: "uniswap", Fee: types.DefaultFee},
		{Name: "sushiswap", Fee: types.DefaultFee},
	}
}

func testConfig() BuilderConfig {
	return BuilderConfig{MaxRetries: 2, RetryBackoff: time.Millisecond, FetchTimeout: time.Second}
}

func TestBuilderBuild(t *testing.T) {
	src := newFakeSource()
	b, err := NewBuilder(src, testVenues(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, uint64(100), snap.BlockNumber())

	p, ok := snap.Pool("sushiswap")
	require.True(t, ok)
	assert.Equal(t, int64(900), p.ReserveOther.Int64())

	// every read pinned to the same block
	for _, blk := range src.blocks {
		assert.Equal(t, uint64(100), blk)
	}
}

func TestBuilderRetriesTransientFailures(t *testing.T) {
	src := newFakeSource()
	src.failures["uniswap"] = 2

	b, err := NewBuilder(src, testVenues(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	var retries int
	var mu sync.Mutex
	b.OnRetry(func(venue string, err error) {
		mu.Lock()
		retries++
		mu.Unlock()
	})

	_, err = b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls["uniswap"])
	assert.Equal(t, 2, retries)
}

func TestBuilderFailsAtomically(t *testing.T) {
	src := newFakeSource()
	src.failures["sushiswap"] = 10

	b, err := NewBuilder(src, testVenues(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	snap, err := b.Build(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, types.ErrUnavailableVenue)
	assert.Equal(t, 3, src.calls["sushiswap"], "retries are bounded")
}

func TestBuilderRejectsDegenerateReserves(t *testing.T) {
	src := newFakeSource()
	src.reserves["uniswap"].Other = big.NewInt(0)

	b, err := NewBuilder(src, testVenues(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = b.Build(context.Background())
	assert.ErrorIs(t, err, types.ErrUnavailableVenue)
}

func TestNewBuilderValidation(t *testing.T) {
	_, err := NewBuilder(newFakeSource(), nil, testConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidPoolState)

	dup := []dex.Venue{{Name: "a"}, {Name: "a"}}
	_, err = NewBuilder(newFakeSource(), dup, testConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = NewBuilder(nil, testVenues(), testConfig(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestWithRetryStopsOnInvalidArgument(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return types.ErrInvalidArgument
	}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		return errors.New("boom")
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
