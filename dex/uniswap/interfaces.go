package uniswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ChainReader is the subset of *ethclient.Client needed to read pairs
type ChainReader interface {
	bind.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
}

// IUniswapV2Pair represents the read-only interface for Uniswap V2 pair contracts
type IUniswapV2Pair interface {
	Address() common.Address
	GetReserves(ctx context.Context, block *big.Int) (reserve0 *big.Int, reserve1 *big.Int, blockTimestampLast uint32, err error)
	Token0(ctx context.Context) (common.Address, error)
	Token1(ctx context.Context) (common.Address, error)
}
