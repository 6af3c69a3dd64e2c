package cmd

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/utils"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print each venue's price for buying and selling a fixed amount of the other asset",
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	addTradeFlags(quoteCmd)
	quoteCmd.Flags().String("amount", "1000000000000000000", "amount of the other asset in base units")
	quoteCmd.Flags().String("save-snapshot", "", "also write the fetched reserves to this file")
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer utils.CleanupLogger()

	raw, _ := cmd.Flags().GetString("amount")
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("invalid --amount %q", raw)
	}

	ctx := cmd.Context()
	client, builder, err := dial(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save-snapshot"); path != "" {
		if err := snap.WriteFile(path); err != nil {
			return err
		}
		log.Info("Saved snapshot", zap.String("path", path), zap.Uint64("block", snap.BlockNumber()))
	}

	return report.WriteQuoteTable(cmd.OutOrStdout(), report.QuoteTable(snap, amount), amount, units(cfg))
}
