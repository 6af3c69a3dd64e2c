package types

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Direction selects which side of a pool is paid in.
type Direction int

const (
	// QuoteToOther sells the quote asset (reserve0 side, e.g. DAI) for the other asset.
	QuoteToOther Direction = iota
	// OtherToQuote sells the other asset (e.g. WETH) for the quote asset.
	OtherToQuote
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == QuoteToOther {
		return OtherToQuote
	}
	return QuoteToOther
}

func (d Direction) String() string {
	switch d {
	case QuoteToOther:
		return "quote->other"
	case OtherToQuote:
		return "other->quote"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts the names produced by String plus the short forms "buy" and "sell"
// (buy = spend quote for other).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "quote->other", "buy":
		return QuoteToOther, nil
	case "other->quote", "sell":
		return OtherToQuote, nil
	}
	return 0, fmt.Errorf("unknown direction %q: %w", s, ErrInvalidArgument)
}

// Fee is a proportional swap fee expressed as the fraction of input kept by the
// trader, e.g. 997/1000 for a 30 bps pool.
type Fee struct {
	Numerator   int64 `json:"numerator"`
	Denominator int64 `json:"denominator"`
}

// DefaultFee is the Uniswap V2 fee.
var DefaultFee = Fee{Numerator: 997, Denominator: 1000}

// Validate checks 0 < Numerator <= Denominator.
func (f Fee) Validate() error {
	if f.Denominator <= 0 || f.Numerator <= 0 || f.Numerator > f.Denominator {
		return fmt.Errorf("fee %d/%d: %w", f.Numerator, f.Denominator, ErrInvalidArgument)
	}
	return nil
}

// Pool is the state of one constant-product venue.
type Pool struct {
	ReserveQuote *big.Int
	ReserveOther *big.Int
	Fee          Fee
}

// Validate reports ErrInvalidPoolState for missing or non-positive reserves.
func (p Pool) Validate() error {
	if p.ReserveQuote == nil || p.ReserveQuote.Sign() <= 0 {
		return fmt.Errorf("reserve quote %v: %w", p.ReserveQuote, ErrInvalidPoolState)
	}
	if p.ReserveOther == nil || p.ReserveOther.Sign() <= 0 {
		return fmt.Errorf("reserve other %v: %w", p.ReserveOther, ErrInvalidPoolState)
	}
	return p.Fee.Validate()
}

// Clone returns a deep copy.
func (p Pool) Clone() Pool {
	c := Pool{Fee: p.Fee}
	if p.ReserveQuote != nil {
		c.ReserveQuote = new(big.Int).Set(p.ReserveQuote)
	}
	if p.ReserveOther != nil {
		c.ReserveOther = new(big.Int).Set(p.ReserveOther)
	}
	return c
}

// Reserves returns (reserveIn, reserveOut) for a swap in direction d. The
// returned values alias the pool; callers that mutate must copy first.
func (p Pool) Reserves(d Direction) (*big.Int, *big.Int) {
	if d == QuoteToOther {
		return p.ReserveQuote, p.ReserveOther
	}
	return p.ReserveOther, p.ReserveQuote
}

// AllocationPlan is the output of one optimizer run.
type AllocationPlan struct {
	Direction   Direction
	AmountIn    *big.Int
	Allocations map[string]*big.Int
	AmountOut   *big.Int
}

// NewAllocationPlan returns an empty plan with zero output.
func NewAllocationPlan(d Direction, amountIn *big.Int) *AllocationPlan {
	return &AllocationPlan{
		Direction:   d,
		AmountIn:    new(big.Int).Set(amountIn),
		Allocations: make(map[string]*big.Int),
		AmountOut:   new(big.Int),
	}
}

// ActiveVenues returns venues with a non-zero allocation, largest allocation
// first; ties are ordered by venue id.
func (p *AllocationPlan) ActiveVenues() []string {
	venues := make([]string, 0, len(p.Allocations))
	for id, amt := range p.Allocations {
		if amt.Sign() > 0 {
			venues = append(venues, id)
		}
	}
	sort.Slice(venues, func(i, j int) bool {
		c := p.Allocations[venues[i]].Cmp(p.Allocations[venues[j]])
		if c != 0 {
			return c > 0
		}
		return venues[i] < venues[j]
	})
	return venues
}

// Allocated sums the per-venue allocations.
func (p *AllocationPlan) Allocated() *big.Int {
	sum := new(big.Int)
	for _, amt := range p.Allocations {
		sum.Add(sum, amt)
	}
	return sum
}

// ArbitrageResult is the outcome of one round-trip evaluation.
type ArbitrageResult struct {
	PlanForward *AllocationPlan
	PlanReverse *AllocationPlan
	SwapCount   int
	AmountIn    *big.Int
	AmountBack  *big.Int
	GrossProfit *big.Int
	PerSwapCost *big.Int
	NetProfit   *big.Int
	BlockNumber uint64
}

// Profitable reports whether the net profit is strictly positive.
func (r *ArbitrageResult) Profitable() bool {
	return r.NetProfit != nil && r.NetProfit.Sign() > 0
}

// Fingerprint digests the plans and profit so identical results from
// consecutive cycles can be recognised. BlockNumber is not included.
func (r *ArbitrageResult) Fingerprint() uint64 {
	h := xxhash.New()
	writePlan(h, r.PlanForward)
	writePlan(h, r.PlanReverse)
	writeInt(h, r.NetProfit)
	return h.Sum64()
}

func writePlan(h *xxhash.Digest, p *AllocationPlan) {
	if p == nil {
		_, _ = h.WriteString("nil;")
		return
	}
	var dir [8]byte
	binary.BigEndian.PutUint64(dir[:], uint64(p.Direction))
	_, _ = h.Write(dir[:])
	writeInt(h, p.AmountIn)
	ids := make([]string, 0, len(p.Allocations))
	for id := range p.Allocations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_, _ = h.WriteString(id)
		writeInt(h, p.Allocations[id])
	}
	writeInt(h, p.AmountOut)
}

func writeInt(h *xxhash.Digest, x *big.Int) {
	if x == nil {
		_, _ = h.WriteString("nil;")
		return
	}
	_, _ = h.WriteString(x.String())
	_, _ = h.WriteString(";")
}
