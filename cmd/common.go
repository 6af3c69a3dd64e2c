package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/config"
	"github.com/0xDualCube/univ2-mev/dex/uniswap"
	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/strategies/arbitrage"
	"github.com/0xDualCube/univ2-mev/utils"
	"github.com/0xDualCube/univ2-mev/utils/metrics"
)

// addTradeFlags registers the flags shared by commands that size a trade
func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc-endpoint", "", "Ethereum JSON-RPC endpoint")
	cmd.Flags().String("amount-in", "", "round trip size in base units of the input asset")
	cmd.Flags().String("direction", "", "forward leg direction: quote->other (buy) or other->quote (sell)")
	cmd.Flags().Int("quantum", 0, "allocation step in percentage points")
	cmd.Flags().Int("prune-venue-limit", 0, "skip pruning above this many active venues (0 disables the limit)")
	cmd.Flags().String("per-swap-cost", "", "fixed swap cost in base units of the gas asset, overrides gas estimation")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
}

// setup loads configuration and the logger for a command
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, nil, err
	}

	logger, err := utils.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func units(cfg *config.Config) report.Units {
	return report.Units{
		QuoteSymbol:   cfg.QuoteSymbol,
		OtherSymbol:   cfg.OtherSymbol,
		QuoteDecimals: cfg.QuoteDecimals,
		OtherDecimals: cfg.OtherDecimals,
	}
}

// newEvaluator wires the optimizer and evaluator; m may be nil
func newEvaluator(cfg *config.Config, logger *zap.Logger, m *metrics.ArbitrageMetrics) (*arbitrage.Evaluator, error) {
	optimizer, err := arbitrage.NewOptimizer(arbitrage.OptimizerConfig{
		Quantum:         cfg.Quantum,
		PruneVenueLimit: cfg.PruneVenueLimit,
	}, logger)
	if err != nil {
		return nil, err
	}
	evaluator := arbitrage.NewEvaluator(optimizer, logger)
	if m != nil {
		optimizer.OnPrune(m.PruneVenue)
		evaluator.OnEvaluate(m.ObserveEvaluation)
	}
	return evaluator, nil
}

// dial connects to the RPC endpoint and builds a snapshot builder over the
// configured venues; m may be nil
func dial(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.ArbitrageMetrics) (*ethclient.Client, *market.Builder, error) {
	if cfg.RPCEndpoint == "" {
		return nil, nil, fmt.Errorf("rpc_endpoint is required (or set %s)", config.EnvAlchemyKey)
	}

	venues, err := cfg.DexVenues()
	if err != nil {
		return nil, nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	source, err := uniswap.NewUniswapV2(client, 0)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.Debug("Connected reserve source",
		zap.String("source", source.GetName()),
		zap.Int("venues", len(venues)))

	builder, err := market.NewBuilder(source, venues, market.BuilderConfig{
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		FetchTimeout:      cfg.FetchTimeout,
		RequestsPerSecond: cfg.RPCRateLimit.RequestsPerSecond,
		BurstSize:         cfg.RPCRateLimit.BurstSize,
	}, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if m != nil {
		builder.OnRetry(m.FetchRetry)
	}

	return client, builder, nil
}
