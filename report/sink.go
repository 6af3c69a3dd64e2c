package report

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Sink receives evaluation records
type Sink interface {
	Publish(ctx context.Context, record Record) error
	Close() error
}

// LogSink writes records to a zap logger
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, record Record) error {
	fields := []zap.Field{
		zap.Uint64("block", record.Block),
		zap.String("direction", record.Direction),
		zap.String("amount_in", record.AmountIn),
		zap.String("amount_back", record.AmountBack),
		zap.Int("swap_count", record.SwapCount),
		zap.String("net_profit", record.NetProfit),
		zap.String("net_profit_display", record.Display),
		zap.Any("forward", record.Forward),
		zap.Any("reverse", record.Reverse),
	}
	if record.Profitable {
		s.logger.Info("Arbitrage opportunity", fields...)
	} else {
		s.logger.Info("No opportunity", fields...)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}

// MultiSink fans a record out to several sinks. Every sink is attempted;
// failures are joined.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, record Record) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
