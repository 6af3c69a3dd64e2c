package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/gas"
	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/strategies/arbitrage"
	"github.com/0xDualCube/univ2-mev/utils"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one round trip against a snapshot file",
	Long: `Loads pool reserves from a JSON snapshot file and prints the optimal split
for both legs of the round trip. per_swap_cost (in the gas asset) defaults to zero.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	addTradeFlags(evaluateCmd)
	evaluateCmd.Flags().String("snapshot", "", "snapshot file written by 'quote --save-snapshot' or by hand")
	_ = evaluateCmd.MarkFlagRequired("snapshot")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer utils.CleanupLogger()

	path, _ := cmd.Flags().GetString("snapshot")

	cost := cfg.PerSwapCost
	if cost == nil {
		cost = new(big.Int)
	}

	evaluator, err := newEvaluator(cfg, log, nil)
	if err != nil {
		return err
	}
	detector, err := arbitrage.NewDetector(market.FileBuilder{Path: path}, gas.NewStaticEstimator(cost, log), evaluator, arbitrage.DetectorConfig{
		AmountIn:     cfg.AmountIn,
		Direction:    cfg.Direction,
		GasDirection: cfg.GasDirection(),
	}, log)
	if err != nil {
		return err
	}

	result, err := detector.Detect(cmd.Context())
	if err != nil {
		return err
	}

	log.Debug("Evaluated snapshot file", zap.String("path", path), zap.Uint64("fingerprint", result.Fingerprint()))
	_, err = fmt.Fprint(cmd.OutOrStdout(), report.FormatResult(result, units(cfg)))
	return err
}
