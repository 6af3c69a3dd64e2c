package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xDualCube/univ2-mev/config"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "univ2-mev",
	Short: "Split-route arbitrage estimator for Uniswap V2 style pools",
	Long: `Splits a trade across several constant-product pools to maximise output,
then sizes the round trip back into the starting asset net of per-swap gas cost.`,
	SilenceUsage: true,
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.GetEnvWithDefault(config.EnvPrefix+"_CONFIG", ""), "config file (JSON or YAML, default ./univ2-mev.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
