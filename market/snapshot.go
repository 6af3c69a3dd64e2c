package market

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/0xDualCube/univ2-mev/types"
)

// Snapshot is an immutable view of every venue's reserves as of one block.
// It deep-copies its input and hands out copies, so it can be shared freely
// between goroutines.
type Snapshot struct {
	pools       map[string]types.Pool
	venues      []string
	blockNumber uint64
}

// NewSnapshot validates and copies pools. Any invalid pool, or an empty set,
// fails with types.ErrInvalidPoolState (or ErrInvalidArgument for a bad fee);
// no partial snapshot is returned.
func NewSnapshot(pools map[string]types.Pool, blockNumber uint64) (*Snapshot, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("empty venue set: %w", types.ErrInvalidPoolState)
	}

	s := &Snapshot{
		pools:       make(map[string]types.Pool, len(pools)),
		venues:      make([]string, 0, len(pools)),
		blockNumber: blockNumber,
	}
	for id, pool := range pools {
		if id == "" {
			return nil, fmt.Errorf("empty venue id: %w", types.ErrInvalidArgument)
		}
		if err := pool.Validate(); err != nil {
			return nil, fmt.Errorf("venue %s: %w", id, err)
		}
		s.pools[id] = pool.Clone()
		s.venues = append(s.venues, id)
	}
	sort.Strings(s.venues)

	return s, nil
}

// Len returns the number of venues
func (s *Snapshot) Len() int {
	return len(s.venues)
}

// Venues returns venue ids in lexicographic order
func (s *Snapshot) Venues() []string {
	out := make([]string, len(s.venues))
	copy(out, s.venues)
	return out
}

// Pool returns a copy of the venue's pool
func (s *Snapshot) Pool(id string) (types.Pool, bool) {
	pool, ok := s.pools[id]
	if !ok {
		return types.Pool{}, false
	}
	return pool.Clone(), true
}

// BlockNumber returns the block the reserves were read at (0 if unknown)
func (s *Snapshot) BlockNumber() uint64 {
	return s.blockNumber
}

// SpotConvert values amount of the direction's input asset in its output
// asset at the aggregate reserve ratio of all venues, rounded down. Fees and
// slippage are ignored; it is meant for converting small fixed costs.
func (s *Snapshot) SpotConvert(amount *big.Int, d types.Direction) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return new(big.Int)
	}

	totalIn, totalOut := new(big.Int), new(big.Int)
	for _, id := range s.venues {
		in, out := s.pools[id].Reserves(d)
		totalIn.Add(totalIn, in)
		totalOut.Add(totalOut, out)
	}

	converted := new(big.Int).Mul(amount, totalOut)
	return converted.Div(converted, totalIn)
}
