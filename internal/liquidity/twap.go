package liquidity

import (
	"math/big"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/tickmath"
)

// PriceRatios is a decimals-adjusted price view in both quote directions.
// These are display values, computed in floating point by design of the
// output layer; all upstream math stays in big integers.
type PriceRatios struct {
	Token1PerToken0 float64
	Token0PerToken1 float64
}

// TWAPResult is the time-weighted average price over a window, with the
// instantaneous price alongside for comparison.
type TWAPResult struct {
	AverageTick   int32
	TWAPRatios    PriceRatios
	CurrentRatios PriceRatios
	Observations  []model.Observation
}

// TWALResult is the harmonic-mean liquidity over a window.
type TWALResult struct {
	TWAL             *big.Int
	CurrentLiquidity *big.Int
	CurrentTick      int32
	Observations     []model.Observation
}

// averageTick derives the time-weighted average tick from two cumulative
// observations bounding a window of windowSeconds. Division truncates the
// way the on-chain oracle library does: toward negative infinity for
// negative non-exact deltas.
func averageTick(oldest, newest model.Observation, windowSeconds uint32) (int32, error) {
	if windowSeconds == 0 {
		return 0, preconditionError("window must be positive")
	}
	if oldest.TickCumulative == nil || newest.TickCumulative == nil {
		return 0, invalidStateError("missing tick cumulative in observations")
	}

	delta := new(big.Int).Sub(newest.TickCumulative, oldest.TickCumulative)
	window := new(big.Int).SetUint64(uint64(windowSeconds))

	quo, rem := new(big.Int).QuoRem(delta, window, new(big.Int))
	if delta.Sign() < 0 && rem.Sign() != 0 {
		quo.Sub(quo, big.NewInt(1))
	}
	if !quo.IsInt64() || quo.Int64() > int64(tickmath.MaxTick) || quo.Int64() < int64(tickmath.MinTick) {
		return 0, invalidStateError("average tick %s out of range", quo)
	}
	return int32(quo.Int64()), nil
}

// harmonicMeanLiquidity derives the time-weighted average liquidity from two
// cumulative seconds-per-liquidity observations. The left shift undoes the
// oracle's X128 fixed-point scaling.
func harmonicMeanLiquidity(oldest, newest model.Observation, windowSeconds uint32) (*big.Int, error) {
	if windowSeconds == 0 {
		return nil, preconditionError("window must be positive")
	}
	if oldest.SecondsPerLiquidityCumulativeX128 == nil || newest.SecondsPerLiquidityCumulativeX128 == nil {
		return nil, invalidStateError("missing seconds-per-liquidity cumulative in observations")
	}

	delta := new(big.Int).Sub(newest.SecondsPerLiquidityCumulativeX128, oldest.SecondsPerLiquidityCumulativeX128)
	if delta.Sign() <= 0 {
		return nil, invalidStateError("seconds-per-liquidity cumulative did not advance over the window")
	}

	num := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(windowSeconds)), 128)
	return num.Div(num, delta), nil
}

// ratiosAtTick applies the pool's token decimals to the raw tick price.
func ratiosAtTick(tick int32, token0, token1 model.Token) PriceRatios {
	price := tickmath.PriceAtTick(tick, token0.Decimals, token1.Decimals)
	ratios := PriceRatios{Token1PerToken0: price}
	if price != 0 {
		ratios.Token0PerToken1 = 1 / price
	}
	return ratios
}
