package liquidity

import (
	"math/big"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// curve is the accumulated active-liquidity view around the current tick.
type curve struct {
	ticks     []int32
	records   map[int32]model.TickRecord
	available map[int32]*big.Int
	clamped   map[int32]bool
}

// accumulate walks the tick set outward from the anchor, maintaining running
// active liquidity by signed-delta accumulation. Records must be ascending by
// tick. If the current tick is absent it is seeded as a synthetic entry with
// zero net rather than folded into a neighbor.
//
// Above the anchor each tick adds its own liquidityNet; below the anchor the
// sign reverses because liquidityNet is defined for upward crossings. A
// negative running value signals malformed input and is clamped to zero and
// flagged, never escalated.
func accumulate(records []model.TickRecord, currentTick int32, currentLiquidity *big.Int) (*curve, error) {
	for i := 1; i < len(records); i++ {
		if records[i].Tick <= records[i-1].Tick {
			return nil, preconditionError("tick records not ascending at index %d", i)
		}
	}
	if currentLiquidity == nil {
		currentLiquidity = new(big.Int)
	}
	if currentLiquidity.Sign() < 0 {
		return nil, invalidStateError("current liquidity is negative: %s", currentLiquidity)
	}

	c := &curve{
		records:   make(map[int32]model.TickRecord, len(records)+1),
		available: make(map[int32]*big.Int, len(records)+1),
		clamped:   make(map[int32]bool),
	}

	ticks := make([]int32, 0, len(records)+1)
	haveCurrent := false
	for _, rec := range records {
		c.records[rec.Tick] = rec
		ticks = append(ticks, rec.Tick)
		if rec.Tick == currentTick {
			haveCurrent = true
		}
	}
	if !haveCurrent {
		c.records[currentTick] = model.TickRecord{
			Tick:         currentTick,
			LiquidityNet: new(big.Int),
		}
		inserted := false
		for i, tick := range ticks {
			if tick > currentTick {
				ticks = append(ticks[:i], append([]int32{currentTick}, ticks[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			ticks = append(ticks, currentTick)
		}
	}
	c.ticks = ticks

	curIdx := 0
	for i, tick := range ticks {
		if tick == currentTick {
			curIdx = i
			break
		}
	}

	c.available[currentTick] = new(big.Int).Set(currentLiquidity)

	for i := curIdx + 1; i < len(ticks); i++ {
		prev := c.available[ticks[i-1]]
		next := new(big.Int).Add(prev, netOf(c.records[ticks[i]]))
		if next.Sign() < 0 {
			c.clamped[ticks[i]] = true
			next.SetInt64(0)
		}
		c.available[ticks[i]] = next
	}

	for i := curIdx - 1; i >= 0; i-- {
		upper := c.available[ticks[i+1]]
		next := new(big.Int).Sub(upper, netOf(c.records[ticks[i]]))
		if next.Sign() < 0 {
			c.clamped[ticks[i]] = true
			next.SetInt64(0)
		}
		c.available[ticks[i]] = next
	}

	return c, nil
}

func netOf(rec model.TickRecord) *big.Int {
	if rec.LiquidityNet == nil {
		return new(big.Int)
	}
	return rec.LiquidityNet
}
