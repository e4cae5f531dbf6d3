package model

import "math/big"

// LiquidityInfoRecord is the serialized form of LiquidityInfo. 128/256-bit
// values are encoded as decimal strings because JSON numbers cannot carry
// them.
type LiquidityInfoRecord struct {
	PoolAddress     string `json:"pool_address"`
	Tick            int32  `json:"tick"`
	LiquidityNet    string `json:"liquidity_net"`
	LiquidityGross  string `json:"liquidity_gross"`
	Available       string `json:"available_liquidity"`
	Amount0         string `json:"amount0"`
	Amount1         string `json:"amount1"`
	Amount0Adjusted string `json:"amount0_adjusted"`
	Amount1Adjusted string `json:"amount1_adjusted"`
	Amount0USD      string `json:"amount0_usd"`
	Amount1USD      string `json:"amount1_usd"`
	Initialized     bool   `json:"initialized"`
	IsCurrentTick   bool   `json:"is_current_tick"`
	Clamped         bool   `json:"clamped,omitempty"`
	ObservedAt      string `json:"observed_at"`
}

// CliffRecord is the serialized form of Cliff.
type CliffRecord struct {
	PoolAddress       string  `json:"pool_address"`
	Tick              int32   `json:"tick"`
	PreviousLiquidity string  `json:"previous_liquidity"`
	CurrentLiquidity  string  `json:"current_liquidity"`
	DeltaPct          float64 `json:"delta_pct"`
	ObservedAt        string  `json:"observed_at"`
}

// NewLiquidityInfoRecord encodes one LiquidityInfo row of a snapshot.
func NewLiquidityInfoRecord(snapshot DistributionSnapshot, info LiquidityInfo) LiquidityInfoRecord {
	return LiquidityInfoRecord{
		PoolAddress:     snapshot.PoolAddress,
		Tick:            info.Tick,
		LiquidityNet:    bigString(info.LiquidityNet),
		LiquidityGross:  bigString(info.LiquidityGross),
		Available:       bigString(info.Available),
		Amount0:         bigString(info.Amount0),
		Amount1:         bigString(info.Amount1),
		Amount0Adjusted: info.Amount0Adjusted.String(),
		Amount1Adjusted: info.Amount1Adjusted.String(),
		Amount0USD:      info.Amount0USD.String(),
		Amount1USD:      info.Amount1USD.String(),
		Initialized:     info.Initialized,
		IsCurrentTick:   info.IsCurrentTick,
		Clamped:         info.Clamped,
		ObservedAt:      snapshot.ObservedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// NewCliffRecord encodes one Cliff row of a snapshot.
func NewCliffRecord(snapshot DistributionSnapshot, cliff Cliff) CliffRecord {
	return CliffRecord{
		PoolAddress:       snapshot.PoolAddress,
		Tick:              cliff.Tick,
		PreviousLiquidity: bigString(cliff.PreviousLiquidity),
		CurrentLiquidity:  bigString(cliff.CurrentLiquidity),
		DeltaPct:          cliff.DeltaPct,
		ObservedAt:        snapshot.ObservedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
