package model

import "math/big"

// PoolState is the point-in-time base state of a concentrated-liquidity pool.
type PoolState struct {
	Address      string
	Token0       Token
	Token1       Token
	Tick         int32
	SqrtPriceX96 *big.Int
	TickSpacing  int32
	Liquidity    *big.Int
}

// TickRecord is the per-tick slot as stored on chain. LiquidityNet is the
// signed delta applied when price crosses the tick moving upward.
type TickRecord struct {
	Tick           int32
	LiquidityNet   *big.Int
	LiquidityGross *big.Int
	Initialized    bool
}

// Observation is one cumulative oracle snapshot. Two observations bound a
// time window for TWAP/TWAL math.
type Observation struct {
	SecondsAgo                        uint32
	TickCumulative                    *big.Int
	SecondsPerLiquidityCumulativeX128 *big.Int
}
