package sushiswap

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/0xDualCube/univ2-mev/dex/uniswap"
)

func TestNewVenue(t *testing.T) {
	venue := NewVenue(uniswap.DAIAddress, uniswap.WETHAddress)

	assert.Equal(t, Name, venue.Name)
	assert.Equal(t, common.HexToAddress("0xC3D03e4F041Fd4cD388c549Ee2A29a9E5075882f"), venue.Pair)
	assert.Equal(t, uniswap.DAIAddress, venue.QuoteToken)
	assert.NotEqual(t, uniswap.NewVenue(uniswap.DAIAddress, uniswap.WETHAddress).Pair, venue.Pair)
}
