package liquidity

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/tickmath"
)

// tokenAmounts converts active liquidity at a tick into raw token quantities.
// Below the current tick a position is fully denominated in token1, above it
// fully in token0, and at the current tick it splits using the live sqrt
// price. Returned amounts are never negative.
func tokenAmounts(tick, currentTick int32, sqrtPriceX96 *big.Int, available *big.Int) (*big.Int, *big.Int, error) {
	amount0 := new(big.Int)
	amount1 := new(big.Int)
	if available == nil || available.Sign() == 0 {
		return amount0, amount1, nil
	}

	switch {
	case tick == currentTick:
		if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
			return nil, nil, invalidStateError("sqrt price is zero at current tick")
		}
		amount0.Lsh(available, 96)
		amount0.Div(amount0, sqrtPriceX96)
		amount1.Mul(available, sqrtPriceX96)
		amount1.Rsh(amount1, 96)
	case tick < currentTick:
		sqrtCurrent, err := tickmath.SqrtRatioAtTick(currentTick)
		if err != nil {
			return nil, nil, invalidStateError("current tick out of range: %v", err)
		}
		sqrtTick, err := tickmath.SqrtRatioAtTick(tick)
		if err != nil {
			return nil, nil, invalidStateError("tick %d out of range: %v", tick, err)
		}
		amount1.Sub(sqrtCurrent, sqrtTick)
		amount1.Mul(amount1, available)
		amount1.Rsh(amount1, 96)
	default:
		sqrtCurrent, err := tickmath.SqrtRatioAtTick(currentTick)
		if err != nil {
			return nil, nil, invalidStateError("current tick out of range: %v", err)
		}
		sqrtTick, err := tickmath.SqrtRatioAtTick(tick)
		if err != nil {
			return nil, nil, invalidStateError("tick %d out of range: %v", tick, err)
		}
		amount0.Sub(sqrtTick, sqrtCurrent)
		amount0.Mul(amount0, available)
		amount0.Rsh(amount0, 96)
	}

	amount0.Abs(amount0)
	amount1.Abs(amount1)
	return amount0, amount1, nil
}

// adjustAmounts fills the decimal- and USD-adjusted views of raw amounts.
// Unknown token prices fall back to defaultPriceUSD.
func adjustAmounts(info *model.LiquidityInfo, token0, token1 model.Token, defaultPriceUSD float64) {
	info.Amount0Adjusted = decimal.NewFromBigInt(info.Amount0, -int32(token0.Decimals))
	info.Amount1Adjusted = decimal.NewFromBigInt(info.Amount1, -int32(token1.Decimals))
	info.Amount0USD = info.Amount0Adjusted.Mul(priceOf(token0, defaultPriceUSD))
	info.Amount1USD = info.Amount1Adjusted.Mul(priceOf(token1, defaultPriceUSD))
}

func priceOf(token model.Token, defaultPriceUSD float64) decimal.Decimal {
	if token.PriceUSD != nil {
		return decimal.NewFromFloat(*token.PriceUSD)
	}
	return decimal.NewFromFloat(defaultPriceUSD)
}
