package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xDualCube/univ2-mev/types"
)

// ReserveSource reads venue reserves from a ledger
type ReserveSource interface {
	// BlockNumber returns the latest block, used to pin all reads of a cycle
	BlockNumber(ctx context.Context) (uint64, error)

	// FetchReserves returns the venue's reserves at the given block (nil means latest).
	// Errors wrap types.ErrUnavailableVenue.
	FetchReserves(ctx context.Context, venue Venue, block *big.Int) (*Reserves, error)
}

// Venue identifies one constant-product pair and how to orient it
type Venue struct {
	Name string
	Pair common.Address
	// QuoteToken is the asset priced as "quote"; its reserve becomes ReserveQuote.
	QuoteToken common.Address
	Fee        types.Fee
}

// Reserves represents pair reserves oriented quote/other
type Reserves struct {
	Quote       *big.Int
	Other       *big.Int
	BlockNumber uint64
	// BlockTimestampLast is the pair's last update time as reported by getReserves
	BlockTimestampLast uint32
}

// Pool converts the reserves into a pool with the venue's fee.
func (r *Reserves) Pool(fee types.Fee) types.Pool {
	return types.Pool{
		ReserveQuote: new(big.Int).Set(r.Quote),
		ReserveOther: new(big.Int).Set(r.Other),
		Fee:          fee,
	}
}
