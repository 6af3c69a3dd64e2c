package arbitrage

import (
	"container/heap"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/0xDualCube/univ2-mev/dex/uniswap"
	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/types"
)

const (
	// DefaultQuantum is the allocation step in percentage points
	DefaultQuantum = 1
	// DefaultPruneVenueLimit skips the pruning pass above this many active venues
	DefaultPruneVenueLimit = 32
)

// OptimizerConfig configures the allocation optimizer
type OptimizerConfig struct {
	// Quantum is the allocation step in percentage points (1..100).
	Quantum int
	// PruneVenueLimit bounds the quadratic pruning pass; 0 means no limit.
	PruneVenueLimit int
}

// Optimizer splits a fixed input across constant-product venues by handing out
// quanta greedily to whichever venue currently yields the most output.
//
// Marginal output of a constant-product pool decreases with every unit it
// receives, so the discretised problem is a separable concave maximisation and
// the greedy choice is optimal for the chosen quantum size.
type Optimizer struct {
	quantum    int
	pruneLimit int
	logger     *zap.Logger
	onPrune    func(venue string)
}

// NewOptimizer creates an optimizer. A zero quantum selects DefaultQuantum.
func NewOptimizer(cfg OptimizerConfig, logger *zap.Logger) (*Optimizer, error) {
	q := cfg.Quantum
	if q == 0 {
		q = DefaultQuantum
	}
	if q < 0 || q > 100 {
		return nil, fmt.Errorf("quantum %d outside 1..100: %w", q, types.ErrInvalidArgument)
	}
	if cfg.PruneVenueLimit < 0 {
		return nil, fmt.Errorf("prune venue limit %d: %w", cfg.PruneVenueLimit, types.ErrInvalidArgument)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Optimizer{
		quantum:    q,
		pruneLimit: cfg.PruneVenueLimit,
		logger:     logger,
	}, nil
}

// OnPrune registers a hook called for every venue removed by pruning
func (o *Optimizer) OnPrune(fn func(venue string)) {
	o.onPrune = fn
}

// Allocate returns the split of amountIn across the snapshot's venues that
// (approximately) maximises output in direction d. perSwapCost is denominated
// in the output asset; a venue whose removal costs less output than that is
// dropped from the plan. The snapshot is never modified.
func (o *Optimizer) Allocate(amountIn *big.Int, d types.Direction, snap *market.Snapshot, perSwapCost *big.Int) (*types.AllocationPlan, error) {
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, fmt.Errorf("amount in %v: %w", amountIn, types.ErrInvalidArgument)
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
	if amountIn.Sign() == 0 {
		return types.NewAllocationPlan(d, amountIn), nil
	}

	venues := snap.Venues()
	plan, err := o.distribute(amountIn, d, snap, venues)
	if err != nil {
		return nil, err
	}

	return o.prune(amountIn, d, snap, venues, plan, perSwapCost)
}

// distribute runs the greedy allocation over venues. Output is the sum of the
// per-quantum outputs realised against progressively depleted working
// reserves, which models a sequence of partial swaps; recomputing each venue's
// total in one shot would give a different figure.
func (o *Optimizer) distribute(amountIn *big.Int, d types.Direction, snap *market.Snapshot, venues []string) (*types.AllocationPlan, error) {
	plan := types.NewAllocationPlan(d, amountIn)
	if len(venues) == 0 {
		return nil, fmt.Errorf("no valid venues: %w", types.ErrInvalidPoolState)
	}

	if len(venues) == 1 {
		wp, err := newWorkingPool(snap, venues[0], d)
		if err != nil {
			return nil, err
		}
		out, err := wp.quote(amountIn)
		if err != nil {
			return nil, err
		}
		plan.Allocations[wp.id] = new(big.Int).Set(amountIn)
		plan.AmountOut = out
		return plan, nil
	}

	quantum := new(big.Int).Mul(amountIn, big.NewInt(int64(o.quantum)))
	quantum.Div(quantum, big.NewInt(100))
	steps := 100 / o.quantum
	if quantum.Sign() == 0 {
		steps = 0
	}

	residual := new(big.Int).Mul(quantum, big.NewInt(int64(steps)))
	residual.Sub(amountIn, residual)

	size := quantum
	if steps == 0 {
		size = residual
	}

	h := make(marginalHeap, 0, len(venues))
	for _, id := range venues {
		wp, err := newWorkingPool(snap, id, d)
		if err != nil {
			return nil, err
		}
		m, err := wp.quote(size)
		if err != nil {
			return nil, err
		}
		h = append(h, &marginalEntry{pool: wp, marginal: m})
	}
	heap.Init(&h)

	for i := 0; i < steps; i++ {
		if err := commit(&h, quantum, plan); err != nil {
			return nil, err
		}
	}

	if residual.Sign() > 0 {
		if steps > 0 {
			// re-rank every venue for the smaller final piece
			for _, e := range h {
				m, err := e.pool.quote(residual)
				if err != nil {
					return nil, err
				}
				e.marginal = m
			}
			heap.Init(&h)
		}
		if err := commit(&h, residual, plan); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// commit hands size to the best venue, books its realised output, depletes its
// working reserves and re-queues it with its next marginal output.
func commit(h *marginalHeap, size *big.Int, plan *types.AllocationPlan) error {
	e := heap.Pop(h).(*marginalEntry)
	wp := e.pool

	alloc, ok := plan.Allocations[wp.id]
	if !ok {
		alloc = new(big.Int)
		plan.Allocations[wp.id] = alloc
	}
	alloc.Add(alloc, size)
	plan.AmountOut.Add(plan.AmountOut, e.marginal)

	wp.reserveIn.Add(wp.reserveIn, size)
	wp.reserveOut.Sub(wp.reserveOut, e.marginal)

	next, err := wp.quote(size)
	if err != nil {
		return err
	}
	e.marginal = next
	heap.Push(h, e)
	return nil
}

// prune drops venues whose contribution is worth less than one extra swap.
// Passes repeat until stable so that every remaining venue other than the
// largest costs at least perSwapCost of output when removed.
func (o *Optimizer) prune(amountIn *big.Int, d types.Direction, snap *market.Snapshot, venues []string, plan *types.AllocationPlan, perSwapCost *big.Int) (*types.AllocationPlan, error) {
	active := plan.ActiveVenues()
	if o.pruneLimit > 0 && len(active) > o.pruneLimit {
		o.logger.Debug("Skipping pruning pass",
			zap.Int("active_venues", len(active)),
			zap.Int("limit", o.pruneLimit))
		return plan, nil
	}

	kept := make(map[string]bool, len(venues))
	for _, id := range venues {
		kept[id] = true
	}

	for {
		active = plan.ActiveVenues()
		if len(active) <= 1 {
			return plan, nil
		}

		removed := false
		for _, candidate := range active[1:] {
			if !kept[candidate] {
				continue
			}
			remaining := make([]string, 0, len(venues))
			for _, id := range venues {
				if kept[id] && id != candidate {
					remaining = append(remaining, id)
				}
			}

			alt, err := o.distribute(amountIn, d, snap, remaining)
			if err != nil {
				return nil, err
			}
			drop := new(big.Int).Sub(plan.AmountOut, alt.AmountOut)
			if drop.Cmp(perSwapCost) >= 0 {
				continue
			}

			o.logger.Debug("Pruned venue",
				zap.String("venue", candidate),
				zap.String("direction", d.String()),
				zap.String("output_drop", drop.String()),
				zap.String("per_swap_cost", perSwapCost.String()))
			if o.onPrune != nil {
				o.onPrune(candidate)
			}
			kept[candidate] = false
			plan = alt
			removed = true
		}

		if !removed {
			return plan, nil
		}
	}
}

// workingPool is a private, mutable copy of one venue's reserves
type workingPool struct {
	id         string
	reserveIn  *big.Int
	reserveOut *big.Int
	fee        types.Fee
}

func newWorkingPool(snap *market.Snapshot, id string, d types.Direction) (*workingPool, error) {
	pool, ok := snap.Pool(id)
	if !ok {
		return nil, fmt.Errorf("venue %s not in snapshot: %w", id, types.ErrInvalidArgument)
	}
	in, out := pool.Reserves(d)
	return &workingPool{id: id, reserveIn: in, reserveOut: out, fee: pool.Fee}, nil
}

func (w *workingPool) quote(amountIn *big.Int) (*big.Int, error) {
	out, err := uniswap.GetAmountOut(amountIn, w.reserveIn, w.reserveOut, w.fee)
	if err != nil {
		return nil, fmt.Errorf("venue %s: %w", w.id, err)
	}
	return out, nil
}

type marginalEntry struct {
	pool     *workingPool
	marginal *big.Int
}

// marginalHeap is a max-heap on marginal output; ties go to the smaller venue
// id so runs are deterministic.
type marginalHeap []*marginalEntry

func (h marginalHeap) Len() int { return len(h) }

func (h marginalHeap) Less(i, j int) bool {
	if c := h[i].marginal.Cmp(h[j].marginal); c != 0 {
		return c > 0
	}
	return h[i].pool.id < h[j].pool.id
}

func (h marginalHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *marginalHeap) Push(x interface{}) {
	*h = append(*h, x.(*marginalEntry))
}

func (h *marginalHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
