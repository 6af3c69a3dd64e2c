package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// DefaultGasPerSwap approximates one Uniswap V2 swap through the router
const DefaultGasPerSwap = 152000

// ErrNoGasPrice is returned by SwapCost before the first successful update
var ErrNoGasPrice = errors.New("gas price not fetched yet")

// FeeSource is the subset of ethclient.Client the estimator needs
type FeeSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// Estimator tracks the latest base fee and priority fee
type Estimator struct {
	client       FeeSource
	logger       *zap.Logger
	baseGasPrice *big.Int
	priorityFee  *big.Int
	override     *big.Int
	mu           sync.RWMutex
}

// NewEstimator creates a new gas estimator
func NewEstimator(client FeeSource, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		client: client,
		logger: logger,
	}
}

// NewStaticEstimator returns an estimator that always reports cost, in wei,
// for every swap regardless of gas amount. Used when the cost is configured.
func NewStaticEstimator(cost *big.Int, logger *zap.Logger) *Estimator {
	e := NewEstimator(nil, logger)
	e.override = new(big.Int).Set(cost)
	return e
}

// Update fetches the latest base fee and priority fee
func (e *Estimator) Update(ctx context.Context) error {
	if e.override != nil {
		return nil
	}

	header, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		// pre-London chains
		baseFee = new(big.Int)
	}

	priorityFee, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return fmt.Errorf("failed to get priority fee: %w", err)
	}

	e.mu.Lock()
	e.baseGasPrice = new(big.Int).Set(baseFee)
	e.priorityFee = new(big.Int).Set(priorityFee)
	e.mu.Unlock()

	e.logger.Debug("Updated gas prices",
		zap.String("base_fee", baseFee.String()),
		zap.String("priority_fee", priorityFee.String()))

	return nil
}

// GasPrice returns base fee plus priority fee
func (e *Estimator) GasPrice() (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.baseGasPrice == nil || e.priorityFee == nil {
		return nil, ErrNoGasPrice
	}
	return new(big.Int).Add(e.baseGasPrice, e.priorityFee), nil
}

// SwapCost estimates the wei cost of one swap using gasPerSwap gas
func (e *Estimator) SwapCost(gasPerSwap uint64) (*big.Int, error) {
	if e.override != nil {
		return new(big.Int).Set(e.override), nil
	}

	price, err := e.GasPrice()
	if err != nil {
		return nil, err
	}
	return price.Mul(price, new(big.Int).SetUint64(gasPerSwap)), nil
}
