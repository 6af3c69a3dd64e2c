package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/0xDualCube/univ2-mev/dex"
	"github.com/0xDualCube/univ2-mev/types"
)

// BuilderConfig controls fetch retries and RPC pacing
type BuilderConfig struct {
	MaxRetries        int
	RetryBackoff      time.Duration
	FetchTimeout      time.Duration
	RequestsPerSecond float64
	BurstSize         int
}

// Builder assembles a Snapshot from a reserve source. Every venue is read at
// the same block; reads run concurrently and are joined before the snapshot
// is constructed, and a single failure discards the whole cycle.
type Builder struct {
	source  dex.ReserveSource
	venues  []dex.Venue
	cfg     BuilderConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	onRetry func(venue string, err error)
}

// NewBuilder creates a snapshot builder for venues
func NewBuilder(source dex.ReserveSource, venues []dex.Venue, cfg BuilderConfig, logger *zap.Logger) (*Builder, error) {
	if source == nil {
		return nil, fmt.Errorf("nil reserve source: %w", types.ErrInvalidArgument)
	}
	if len(venues) == 0 {
		return nil, fmt.Errorf("no venues configured: %w", types.ErrInvalidPoolState)
	}
	seen := make(map[string]struct{}, len(venues))
	for _, v := range venues {
		if v.Name == "" {
			return nil, fmt.Errorf("venue with empty name: %w", types.ErrInvalidArgument)
		}
		if _, dup := seen[v.Name]; dup {
			return nil, fmt.Errorf("duplicate venue %q: %w", v.Name, types.ErrInvalidArgument)
		}
		seen[v.Name] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = len(venues)
	}

	return &Builder{
		source:  source,
		venues:  append([]dex.Venue(nil), venues...),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

// OnRetry registers a hook invoked before each retried fetch
func (b *Builder) OnRetry(fn func(venue string, err error)) {
	b.onRetry = fn
}

// Venues returns the configured venues
func (b *Builder) Venues() []dex.Venue {
	return append([]dex.Venue(nil), b.venues...)
}

// Build reads all venues at the latest block and returns the snapshot.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	var block uint64
	err := withRetry(ctx, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		n, err := b.source.BlockNumber(ctx)
		if err != nil {
			return err
		}
		block = n
		return nil
	}, b.retryHook("block_number"))
	if err != nil {
		return nil, fmt.Errorf("latest block: %v: %w", err, types.ErrUnavailableVenue)
	}
	pin := new(big.Int).SetUint64(block)

	var (
		mu    sync.Mutex
		pools = make(map[string]types.Pool, len(b.venues))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, venue := range b.venues {
		venue := venue
		g.Go(func() error {
			res, err := b.fetch(gctx, venue, pin)
			if err != nil {
				return err
			}
			mu.Lock()
			pools[venue.Name] = res.Pool(venue.Fee)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap, err := NewSnapshot(pools, block)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("Snapshot built",
		zap.Uint64("block", block),
		zap.Int("venues", snap.Len()))

	return snap, nil
}

func (b *Builder) fetch(ctx context.Context, venue dex.Venue, block *big.Int) (*dex.Reserves, error) {
	var res *dex.Reserves
	err := withRetry(ctx, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		if b.cfg.FetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.cfg.FetchTimeout)
			defer cancel()
		}

		r, err := b.source.FetchReserves(ctx, venue, block)
		if err != nil {
			return err
		}
		if r == nil || r.Quote == nil || r.Other == nil || r.Quote.Sign() <= 0 || r.Other.Sign() <= 0 {
			return fmt.Errorf("venue %s: degenerate reserves: %w", venue.Name, types.ErrUnavailableVenue)
		}
		res = r
		return nil
	}, b.retryHook(venue.Name))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, types.ErrUnavailableVenue) || errors.Is(err, types.ErrInvalidArgument) {
			return nil, err
		}
		return nil, fmt.Errorf("venue %s: %v: %w", venue.Name, err, types.ErrUnavailableVenue)
	}

	return res, nil
}

func (b *Builder) retryHook(name string) func(int, error) {
	return func(attempt int, err error) {
		b.logger.Warn("Retrying reserve fetch",
			zap.String("venue", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if b.onRetry != nil {
			b.onRetry(name, err)
		}
	}
}
