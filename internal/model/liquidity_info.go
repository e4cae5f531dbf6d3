package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityInfo is the derived per-tick view around the current price. It is
// computed fresh per request and never persisted as-is; storage encodes it
// through LiquidityInfoRecord.
type LiquidityInfo struct {
	Tick           int32
	LiquidityNet   *big.Int
	LiquidityGross *big.Int
	// Available is the active liquidity at this tick, accumulated from the
	// pool's current liquidity anchor.
	Available *big.Int
	// Clamped is set when accumulation produced a negative value that was
	// clamped to zero. It signals malformed upstream tick data.
	Clamped bool

	Amount0 *big.Int
	Amount1 *big.Int

	Amount0Adjusted decimal.Decimal
	Amount1Adjusted decimal.Decimal
	Amount0USD      decimal.Decimal
	Amount1USD      decimal.Decimal

	Initialized   bool
	IsCurrentTick bool
}

// Cliff marks a tick boundary where active liquidity jumps beyond the
// configured relative threshold.
type Cliff struct {
	Tick              int32
	PreviousLiquidity *big.Int
	CurrentLiquidity  *big.Int
	// DeltaPct is the relative change as a percentage, rounded to two
	// decimals.
	DeltaPct float64
}

// DistributionSnapshot bundles one distribution run for storage sinks.
type DistributionSnapshot struct {
	PoolAddress string
	CurrentTick int32
	TickSpacing int32
	ObservedAt  time.Time
	Infos       []LiquidityInfo
	Cliffs      []Cliff
}
