package uniswap

import (
	"fmt"
	"math/big"

	"github.com/0xDualCube/univ2-mev/types"
)

// GetAmountOut returns the output of swapping amountIn against a constant-product
// pool, rounded down:
//
//	amountOut = amountIn*feeNum*reserveOut / (reserveIn*feeDen + amountIn*feeNum)
//
// ref: https://github.com/Uniswap/v2-periphery/blob/master/contracts/libraries/UniswapV2Library.sol
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, fee types.Fee) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, fmt.Errorf("amount in %v: %w", amountIn, types.ErrInvalidArgument)
	}
	if err := checkReserves(reserveIn, reserveOut); err != nil {
		return nil, err
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}

	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(fee.Numerator))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(fee.Denominator))
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn returns the input required to receive amountOut, rounded up in
// the pool's favour.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, fee types.Fee) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() < 0 {
		return nil, fmt.Errorf("amount out %v: %w", amountOut, types.ErrInvalidArgument)
	}
	if err := checkReserves(reserveIn, reserveOut); err != nil {
		return nil, err
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return new(big.Int), nil
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("amount out %s exceeds reserve %s: %w", amountOut, reserveOut, types.ErrInvalidArgument)
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, big.NewInt(fee.Denominator))
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, big.NewInt(fee.Numerator))

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

func checkReserves(reserveIn, reserveOut *big.Int) error {
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return fmt.Errorf("reserve in %v: %w", reserveIn, types.ErrInvalidPoolState)
	}
	if reserveOut == nil || reserveOut.Sign() <= 0 {
		return fmt.Errorf("reserve out %v: %w", reserveOut, types.ErrInvalidPoolState)
	}
	return nil
}
