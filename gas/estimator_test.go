package gas

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeeSource struct {
	baseFee *big.Int
	tip     *big.Int
	err     error
}

func (f *fakeFeeSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Header{BaseFee: f.baseFee}, nil
}

func (f *fakeFeeSource) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tip, nil
}

func TestEstimatorSwapCost(t *testing.T) {
	src := &fakeFeeSource{baseFee: big.NewInt(30_000_000_000), tip: big.NewInt(2_000_000_000)}
	e := NewEstimator(src, nil)

	_, err := e.SwapCost(DefaultGasPerSwap)
	assert.ErrorIs(t, err, ErrNoGasPrice)

	require.NoError(t, e.Update(context.Background()))

	price, err := e.GasPrice()
	require.NoError(t, err)
	assert.Equal(t, "32000000000", price.String())

	cost, err := e.SwapCost(100_000)
	require.NoError(t, err)
	assert.Equal(t, "3200000000000000", cost.String())
}

func TestEstimatorPreLondonHeader(t *testing.T) {
	e := NewEstimator(&fakeFeeSource{tip: big.NewInt(5)}, nil)
	require.NoError(t, e.Update(context.Background()))

	cost, err := e.SwapCost(10)
	require.NoError(t, err)
	assert.Equal(t, int64(50), cost.Int64())
}

func TestEstimatorUpdateError(t *testing.T) {
	e := NewEstimator(&fakeFeeSource{err: errors.New("boom")}, nil)
	assert.Error(t, e.Update(context.Background()))
}

func TestStaticEstimator(t *testing.T) {
	e := NewStaticEstimator(big.NewInt(1234), nil)
	require.NoError(t, e.Update(context.Background()))

	cost, err := e.SwapCost(DefaultGasPerSwap)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cost.Int64())
}
