package bot

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/types"
	"github.com/0xDualCube/univ2-mev/utils/metrics"
)

// Detector runs one evaluation cycle
type Detector interface {
	Detect(ctx context.Context) (*types.ArbitrageResult, error)
}

// Config controls the poll loop
type Config struct {
	PollInterval       time.Duration
	MinProfitThreshold *big.Int
	Units              report.Units
}

// Bot polls the detector on a fixed interval and publishes opportunities
type Bot struct {
	cfg      Config
	detector Detector
	sink     report.Sink
	metrics  *metrics.ArbitrageMetrics
	logger   *zap.Logger
	wg       sync.WaitGroup

	lastFingerprint uint64
	published       bool
	now             func() time.Time
}

// New creates a new bot instance
func New(cfg Config, detector Detector, sink report.Sink, m *metrics.ArbitrageMetrics, logger *zap.Logger) (*Bot, error) {
	if detector == nil || sink == nil || m == nil {
		return nil, fmt.Errorf("bot needs a detector, a sink and metrics: %w", types.ErrInvalidArgument)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval %s: %w", cfg.PollInterval, types.ErrInvalidArgument)
	}
	if cfg.MinProfitThreshold == nil {
		cfg.MinProfitThreshold = new(big.Int)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		cfg:      cfg,
		detector: detector,
		sink:     sink,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start runs the poll loop in the background until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting arbitrage monitor",
		zap.Duration("poll_interval", b.cfg.PollInterval),
		zap.String("min_profit_threshold", b.cfg.MinProfitThreshold.String()))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.run(ctx)
	}()

	return nil
}

// Stop waits for the poll loop to exit
func (b *Bot) Stop() {
	b.logger.Info("Stopping arbitrage monitor...")
	b.wg.Wait()
}

func (b *Bot) run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// a failed cycle is already logged and counted
		_ = b.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single cycle and publishes its result if it is a new
// opportunity above the threshold
func (b *Bot) RunOnce(ctx context.Context) error {
	start := b.now()
	b.metrics.Cycles.Inc()
	defer func() {
		b.metrics.CycleDuration.Observe(b.now().Sub(start).Seconds())
	}()

	result, err := b.detector.Detect(ctx)
	if err != nil {
		b.metrics.FailedCycles.Inc()
		if ctx.Err() == nil {
			b.logger.Error("Cycle failed", zap.Error(err))
		}
		return err
	}

	metrics.SetBigGauge(b.metrics.LastNetProfit, result.NetProfit)
	metrics.SetBigGauge(b.metrics.LastSwapCost, result.PerSwapCost)
	b.metrics.LastSwapCount.Set(float64(result.SwapCount))
	b.metrics.LastBlock.Set(float64(result.BlockNumber))

	if !result.Profitable() {
		b.logger.Debug("No opportunity",
			zap.Uint64("block", result.BlockNumber),
			zap.String("net_profit", result.NetProfit.String()))
		return nil
	}
	b.metrics.Opportunities.Inc()

	if result.NetProfit.Cmp(b.cfg.MinProfitThreshold) < 0 {
		b.logger.Debug("Opportunity below threshold",
			zap.Uint64("block", result.BlockNumber),
			zap.String("net_profit", result.NetProfit.String()))
		return nil
	}

	fingerprint := result.Fingerprint()
	if b.published && fingerprint == b.lastFingerprint {
		b.logger.Debug("Suppressing duplicate result", zap.Uint64("block", result.BlockNumber))
		return nil
	}

	if err := b.sink.Publish(ctx, report.NewRecord(result, b.cfg.Units, b.now())); err != nil {
		b.logger.Error("Failed to publish result", zap.Error(err))
		return err
	}
	b.metrics.Published.Inc()
	b.lastFingerprint = fingerprint
	b.published = true

	return nil
}
