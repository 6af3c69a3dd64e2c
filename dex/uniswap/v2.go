package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"

	"github.com/0xDualCube/univ2-mev/dex"
	"github.com/0xDualCube/univ2-mev/types"
)

// Contract addresses
var (
	MainnetFactory = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	InitCodeHash   = common.FromHex("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
	WETHAddress    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	DAIAddress     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

const defaultPairCacheSize = 256

// UniswapV2 reads reserves from Uniswap V2 style pairs. Any fork sharing the
// pair ABI (Sushiswap etc.) is served by the same reader.
type UniswapV2 struct {
	client ChainReader
	pairs  *lru.Cache // common.Address -> IUniswapV2Pair
	tokens *lru.Cache // common.Address -> pairTokens
}

type pairTokens struct {
	token0 common.Address
	token1 common.Address
}

// NewUniswapV2 creates a reserve reader over client
func NewUniswapV2(client ChainReader, cacheSize int) (*UniswapV2, error) {
	if cacheSize <= 0 {
		cacheSize = defaultPairCacheSize
	}
	pairs, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pair cache: %w", err)
	}
	tokens, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}

	return &UniswapV2{
		client: client,
		pairs:  pairs,
		tokens: tokens,
	}, nil
}

// GetName returns the exchange name
func (u *UniswapV2) GetName() string {
	return "UniswapV2"
}

// BlockNumber returns the latest block number
func (u *UniswapV2) BlockNumber(ctx context.Context) (uint64, error) {
	return u.client.BlockNumber(ctx)
}

// FetchReserves reads getReserves for the venue's pair at block and orients it
// so the venue's quote token lands in Reserves.Quote.
func (u *UniswapV2) FetchReserves(ctx context.Context, venue dex.Venue, block *big.Int) (*dex.Reserves, error) {
	pair := u.getPair(venue.Pair)

	tokens, err := u.getTokens(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("venue %s: %v: %w", venue.Name, err, types.ErrUnavailableVenue)
	}

	reserve0, reserve1, ts, err := pair.GetReserves(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("venue %s: %v: %w", venue.Name, err, types.ErrUnavailableVenue)
	}
	if reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		return nil, fmt.Errorf("venue %s: degenerate reserves %s/%s: %w", venue.Name, reserve0, reserve1, types.ErrUnavailableVenue)
	}

	res := &dex.Reserves{BlockTimestampLast: ts}
	if block != nil {
		res.BlockNumber = block.Uint64()
	}

	switch venue.QuoteToken {
	case common.Address{}, tokens.token0:
		// reserve0 is the quote asset unless told otherwise
		res.Quote, res.Other = reserve0, reserve1
	case tokens.token1:
		res.Quote, res.Other = reserve1, reserve0
	default:
		return nil, fmt.Errorf("venue %s: quote token %s not in pair %s: %w",
			venue.Name, venue.QuoteToken.Hex(), venue.Pair.Hex(), types.ErrInvalidArgument)
	}

	return res, nil
}

// getPair returns the cached pair binding for address
func (u *UniswapV2) getPair(address common.Address) IUniswapV2Pair {
	if cached, ok := u.pairs.Get(address); ok {
		return cached.(IUniswapV2Pair)
	}

	pair := NewUniswapV2Pair(address, u.client)
	u.pairs.Add(address, pair)
	return pair
}

func (u *UniswapV2) getTokens(ctx context.Context, pair IUniswapV2Pair) (pairTokens, error) {
	if cached, ok := u.tokens.Get(pair.Address()); ok {
		return cached.(pairTokens), nil
	}

	token0, err := pair.Token0(ctx)
	if err != nil {
		return pairTokens{}, err
	}
	token1, err := pair.Token1(ctx)
	if err != nil {
		return pairTokens{}, err
	}

	tokens := pairTokens{token0: token0, token1: token1}
	u.tokens.Add(pair.Address(), tokens)
	return tokens, nil
}

// PairFor calculates the CREATE2 pair address for two tokens
func PairFor(factory common.Address, initCodeHash []byte, tokenA, tokenB common.Address) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)

	salt := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(crypto.Keccak256([]byte{0xff}, factory.Bytes(), salt, initCodeHash))
}

// SortTokens orders two token addresses the way the pair factory does
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		return tokenB, tokenA
	}
	return tokenA, tokenB
}

// Name is the venue name used in configuration
const Name = "uniswap"

// NewVenue describes the Uniswap V2 pair for quote/other
func NewVenue(quote, other common.Address) dex.Venue {
	return dex.Venue{
		Name:       Name,
		Pair:       PairFor(MainnetFactory, InitCodeHash, quote, other),
		QuoteToken: quote,
		Fee:        types.DefaultFee,
	}
}
