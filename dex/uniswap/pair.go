package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// UniswapV2Pair represents a Uniswap V2 pair contract
type UniswapV2Pair struct {
	contract *bind.BoundContract
	address  common.Address
}

// Pair contract ABI
const pairABIJson = `[{
	"constant": true,
	"inputs": [],
	"name": "getReserves",
	"outputs": [
		{"name": "reserve0", "type": "uint112"},
		{"name": "reserve1", "type": "uint112"},
		{"name": "blockTimestampLast", "type": "uint32"}
	],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}, {
	"constant": true,
	"inputs": [],
	"name": "token0",
	"outputs": [{"name": "", "type": "address"}],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}, {
	"constant": true,
	"inputs": [],
	"name": "token1",
	"outputs": [{"name": "", "type": "address"}],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

var pairABI abi.ABI

var _ IUniswapV2Pair = (*UniswapV2Pair)(nil)

func init() {
	parsed, err := abi.JSON(strings.NewReader(pairABIJson))
	if err != nil {
		panic(fmt.Sprintf("failed to parse pair ABI: %v", err))
	}
	pairABI = parsed
}

// NewUniswapV2Pair creates a read-only binding for the pair at address
func NewUniswapV2Pair(address common.Address, caller bind.ContractCaller) *UniswapV2Pair {
	return &UniswapV2Pair{
		contract: bind.NewBoundContract(address, pairABI, caller, nil, nil),
		address:  address,
	}
}

// Address returns the pair address
func (p *UniswapV2Pair) Address() common.Address {
	return p.address
}

// GetReserves returns the reserves of the pair at block (nil means latest)
func (p *UniswapV2Pair) GetReserves(ctx context.Context, block *big.Int) (*big.Int, *big.Int, uint32, error) {
	var out []interface{}
	err := p.contract.Call(&bind.CallOpts{Context: ctx, BlockNumber: block}, &out, "getReserves")
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to get reserves: %w", err)
	}
	if len(out) != 3 {
		return nil, nil, 0, fmt.Errorf("unexpected getReserves output length %d", len(out))
	}

	reserve0, ok := out[0].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("failed to parse reserve0")
	}
	reserve1, ok := out[1].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("failed to parse reserve1")
	}
	ts, ok := out[2].(uint32)
	if !ok {
		return nil, nil, 0, fmt.Errorf("failed to parse blockTimestampLast")
	}

	return reserve0, reserve1, ts, nil
}

// Token0 returns the address of token0
func (p *UniswapV2Pair) Token0(ctx context.Context) (common.Address, error) {
	return p.token(ctx, "token0")
}

// Token1 returns the address of token1
func (p *UniswapV2Pair) Token1(ctx context.Context) (common.Address, error) {
	return p.token(ctx, "token1")
}

func (p *UniswapV2Pair) token(ctx context.Context, method string) (common.Address, error) {
	var out []interface{}
	if err := p.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return common.Address{}, fmt.Errorf("failed to get %s: %w", method, err)
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("empty %s output", method)
	}

	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("failed to parse %s address", method)
	}

	return addr, nil
}
