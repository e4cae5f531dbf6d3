package liquidity

import (
	"math"
	"math/big"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// DefaultCliffThreshold is the relative jump that flags a liquidity cliff.
const DefaultCliffThreshold = 0.2

// DetectCliffs scans an ascending-by-tick sequence for adjacent jumps in
// active liquidity at or above thresholdPct (a fraction, e.g. 0.2 for 20%).
// The availability is re-derived from startingLiquidity anchored at the
// sequence's current tick rather than trusted from the caller, so the scan is
// internally consistent even when callers pass stale values.
//
// The input must be pre-sorted ascending by tick; unsorted input is a
// precondition violation, not something this function repairs.
func DetectCliffs(infos []model.LiquidityInfo, startingLiquidity *big.Int, thresholdPct float64) ([]model.Cliff, error) {
	if len(infos) < 2 {
		return nil, nil
	}
	if thresholdPct <= 0 {
		thresholdPct = DefaultCliffThreshold
	}

	currentTick, err := currentTickOf(infos)
	if err != nil {
		return nil, err
	}

	records := make([]model.TickRecord, 0, len(infos))
	for i, info := range infos {
		if i > 0 && info.Tick <= infos[i-1].Tick {
			return nil, preconditionError("liquidity infos not sorted ascending at index %d", i)
		}
		records = append(records, model.TickRecord{
			Tick:         info.Tick,
			LiquidityNet: info.LiquidityNet,
		})
	}

	c, err := accumulate(records, currentTick, startingLiquidity)
	if err != nil {
		return nil, err
	}

	var cliffs []model.Cliff
	for i := 1; i < len(c.ticks); i++ {
		prev := c.available[c.ticks[i-1]]
		cur := c.available[c.ticks[i]]
		if prev.Sign() == 0 {
			continue
		}
		delta := new(big.Int).Sub(cur, prev)
		delta.Abs(delta)
		ratio, _ := new(big.Rat).SetFrac(delta, prev).Float64()
		if ratio >= thresholdPct {
			cliffs = append(cliffs, model.Cliff{
				Tick:              c.ticks[i],
				PreviousLiquidity: new(big.Int).Set(prev),
				CurrentLiquidity:  new(big.Int).Set(cur),
				DeltaPct:          roundPct(ratio),
			})
		}
	}
	return cliffs, nil
}

func currentTickOf(infos []model.LiquidityInfo) (int32, error) {
	for _, info := range infos {
		if info.IsCurrentTick {
			return info.Tick, nil
		}
	}
	return 0, preconditionError("no current tick marked in liquidity infos")
}

// roundPct converts a fraction to a percentage rounded to two decimals.
func roundPct(ratio float64) float64 {
	return math.Round(ratio*10000) / 100
}
