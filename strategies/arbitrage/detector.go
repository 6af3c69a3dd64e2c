package arbitrage

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/types"
)

// SnapshotBuilder produces one consistent view of all venues
type SnapshotBuilder interface {
	Build(ctx context.Context) (*market.Snapshot, error)
}

// CostEstimator prices one swap in the gas asset
type CostEstimator interface {
	Update(ctx context.Context) error
	SwapCost(gasPerSwap uint64) (*big.Int, error)
}

// DetectorConfig sizes the round trip evaluated every cycle
type DetectorConfig struct {
	AmountIn  *big.Int
	Direction types.Direction
	// GasPerSwap is the gas used by one swap.
	GasPerSwap uint64
	// GasDirection is the direction that sells the asset gas is paid in.
	GasDirection types.Direction
}

// Detector runs one evaluation cycle: refresh gas, snapshot the venues,
// price the swap cost in the input asset and evaluate the round trip.
type Detector struct {
	builder   SnapshotBuilder
	estimator CostEstimator
	evaluator *Evaluator
	cfg       DetectorConfig
	logger    *zap.Logger
}

// NewDetector creates a new arbitrage detector
func NewDetector(builder SnapshotBuilder, estimator CostEstimator, evaluator *Evaluator, cfg DetectorConfig, logger *zap.Logger) (*Detector, error) {
	if builder == nil || estimator == nil || evaluator == nil {
		return nil, fmt.Errorf("detector needs a builder, an estimator and an evaluator: %w", types.ErrInvalidArgument)
	}
	if cfg.AmountIn == nil || cfg.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in %v: %w", cfg.AmountIn, types.ErrInvalidArgument)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Detector{
		builder:   builder,
		estimator: estimator,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Detect runs one cycle. Any failure abandons the whole cycle.
func (d *Detector) Detect(ctx context.Context) (*types.ArbitrageResult, error) {
	if err := d.estimator.Update(ctx); err != nil {
		return nil, fmt.Errorf("update gas price: %w", err)
	}

	snap, err := d.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	gasCost, err := d.estimator.SwapCost(d.cfg.GasPerSwap)
	if err != nil {
		return nil, fmt.Errorf("estimate swap cost: %w", err)
	}
	perSwapCost := d.inputCost(snap, gasCost)

	d.logger.Debug("Evaluating snapshot",
		zap.Uint64("block", snap.BlockNumber()),
		zap.Int("venues", snap.Len()),
		zap.String("gas_cost", gasCost.String()),
		zap.String("per_swap_cost", perSwapCost.String()))

	return d.evaluator.Evaluate(d.cfg.AmountIn, d.cfg.Direction, snap, perSwapCost)
}

// inputCost converts a gas-asset cost into the input asset at the aggregate
// spot price of the snapshot.
func (d *Detector) inputCost(snap *market.Snapshot, gasCost *big.Int) *big.Int {
	if d.cfg.Direction == d.cfg.GasDirection {
		return gasCost
	}
	return snap.SpotConvert(gasCost, d.cfg.GasDirection)
}
