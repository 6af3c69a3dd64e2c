package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/cmd/bot"
	"github.com/0xDualCube/univ2-mev/gas"
	"github.com/0xDualCube/univ2-mev/report"
	"github.com/0xDualCube/univ2-mev/strategies/arbitrage"
	"github.com/0xDualCube/univ2-mev/utils"
	"github.com/0xDualCube/univ2-mev/utils/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Poll the configured venues and report round-trip opportunities",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	addTradeFlags(startCmd)
	startCmd.Flags().Duration("poll-interval", 0, "time between cycles")
	startCmd.Flags().String("min-profit-threshold", "", "minimum net profit to publish, in base units of the input asset")
	startCmd.Flags().String("jsonl-out", "", "append results to this JSONL file")
	startCmd.Flags().String("redis-addr", "", "publish results to this Redis server")
	startCmd.Flags().Bool("prometheus-enabled", false, "serve Prometheus metrics")
	startCmd.Flags().String("prometheus-endpoint", "", "metrics listen address")
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer utils.CleanupLogger()

	ctx := cmd.Context()

	registry := metrics.NewRegistry()
	m := metrics.NewArbitrageMetrics(metrics.DefaultNamespace, registry)

	client, builder, err := dial(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer client.Close()

	estimator := gas.NewEstimator(client, log)
	if cfg.PerSwapCost != nil {
		estimator = gas.NewStaticEstimator(cfg.PerSwapCost, log)
	}

	evaluator, err := newEvaluator(cfg, log, m)
	if err != nil {
		return err
	}

	detector, err := arbitrage.NewDetector(builder, estimator, evaluator, arbitrage.DetectorConfig{
		AmountIn:     cfg.AmountIn,
		Direction:    cfg.Direction,
		GasPerSwap:   cfg.GasPerSwap,
		GasDirection: cfg.GasDirection(),
	}, log)
	if err != nil {
		return err
	}

	sinks := report.MultiSink{report.NewLogSink(log)}
	if cfg.JSONLOut != "" {
		sinks = append(sinks, report.NewJSONLSink(cfg.JSONLOut))
	}
	if cfg.RedisAddr != "" {
		redisSink, err := report.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return err
		}
		sinks = append(sinks, redisSink)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Warn("Failed to close sinks", zap.Error(err))
		}
	}()

	if cfg.PrometheusEnabled {
		server := serveMetrics(cfg.PrometheusEndpoint, registry, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	b, err := bot.New(bot.Config{
		PollInterval:       cfg.PollInterval,
		MinProfitThreshold: cfg.MinProfitThreshold,
		Units:              units(cfg),
	}, detector, sinks, m, log)
	if err != nil {
		return err
	}

	log.Info("Arbitrage monitor configured",
		zap.String("amount_in", cfg.AmountIn.String()),
		zap.String("direction", cfg.Direction.String()),
		zap.Int("venues", len(builder.Venues())),
		zap.Int("quantum", cfg.Quantum),
		zap.Bool("static_swap_cost", cfg.PerSwapCost != nil))

	if err := b.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	b.Stop()

	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()
	log.Info("Serving metrics", zap.String("addr", addr))
	return server
}
