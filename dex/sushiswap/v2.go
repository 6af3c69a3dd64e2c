package sushiswap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xDualCube/univ2-mev/dex"
	"github.com/0xDualCube/univ2-mev/dex/uniswap"
	"github.com/0xDualCube/univ2-mev/types"
)

// Factory addresses
var (
	MainnetFactory = common.HexToAddress("0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac")
	InitCodeHash   = common.FromHex("0xe18a34eb0e04b04f7a0ac29a6e80748dca96319b42c54d679cb821dca90c6303")
)

// Name is the venue name used in configuration
const Name = "sushiswap"

// PairFor returns the Sushiswap pair address for two tokens
func PairFor(tokenA, tokenB common.Address) common.Address {
	return uniswap.PairFor(MainnetFactory, InitCodeHash, tokenA, tokenB)
}

// NewVenue describes the Sushiswap pair for quote/other. Sushiswap pairs are
// Uniswap V2 forks with the same 0.3% fee.
func NewVenue(quote, other common.Address) dex.Venue {
	return dex.Venue{
		Name:       Name,
		Pair:       PairFor(quote, other),
		QuoteToken: quote,
		Fee:        types.DefaultFee,
	}
}
