package arbitrage

import (
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/types"
)

// Evaluator sizes a round trip: sell amountIn of asset A for B across all
// venues, then sell the proceeds back for A.
type Evaluator struct {
	optimizer *Optimizer
	logger    *zap.Logger
	observe   func(time.Duration)
}

// NewEvaluator creates an evaluator around an allocation optimizer
func NewEvaluator(optimizer *Optimizer, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		optimizer: optimizer,
		logger:    logger,
	}
}

// OnEvaluate registers a hook receiving the duration of each evaluation
func (e *Evaluator) OnEvaluate(fn func(time.Duration)) {
	e.observe = fn
}

// Evaluate runs both legs against the same unmutated snapshot. perSwapCost is
// denominated in asset A, the input asset of the forward leg. A non-positive
// net profit is a normal outcome and is not reported as an error.
func (e *Evaluator) Evaluate(amountIn *big.Int, forward types.Direction, snap *market.Snapshot, perSwapCost *big.Int) (*types.ArbitrageResult, error) {
	start := time.Now()
	if e.observe != nil {
		defer func() { e.observe(time.Since(start)) }()
	}

	if perSwapCost == nil {
		perSwapCost = new(big.Int)
	}
	if perSwapCost.Sign() < 0 {
		return nil, fmt.Errorf("per swap cost %s: %w", perSwapCost, types.ErrInvalidArgument)
	}
	if snap == nil || snap.Len() == 0 {
		return nil, fmt.Errorf("no valid venues: %w", types.ErrInvalidPoolState)
	}

	// the forward leg outputs asset B, so its pruning threshold is priced in B
	forwardCost := snap.SpotConvert(perSwapCost, forward)
	planForward, err := e.optimizer.Allocate(amountIn, forward, snap, forwardCost)
	if err != nil {
		return nil, fmt.Errorf("forward leg: %w", err)
	}

	planReverse, err := e.optimizer.Allocate(planForward.AmountOut, forward.Reverse(), snap, perSwapCost)
	if err != nil {
		return nil, fmt.Errorf("reverse leg: %w", err)
	}

	swapCount := len(planForward.ActiveVenues()) + len(planReverse.ActiveVenues())
	gross := new(big.Int).Sub(planReverse.AmountOut, amountIn)
	totalCost := new(big.Int).Mul(perSwapCost, big.NewInt(int64(swapCount)))

	result := &types.ArbitrageResult{
		PlanForward: planForward,
		PlanReverse: planReverse,
		SwapCount:   swapCount,
		AmountIn:    new(big.Int).Set(amountIn),
		AmountBack:  new(big.Int).Set(planReverse.AmountOut),
		GrossProfit: gross,
		PerSwapCost: new(big.Int).Set(perSwapCost),
		NetProfit:   new(big.Int).Sub(gross, totalCost),
		BlockNumber: snap.BlockNumber(),
	}

	e.logger.Debug("Evaluated round trip",
		zap.Uint64("block", result.BlockNumber),
		zap.String("direction", forward.String()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_back", result.AmountBack.String()),
		zap.Int("swap_count", swapCount),
		zap.String("net_profit", result.NetProfit.String()))

	return result, nil
}
