package liquidity

import (
	"math/big"
	"testing"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/tickmath"
)

func TestTokenAmountsSplitAtCurrentTick(t *testing.T) {
	liquidity := new(big.Int)
	liquidity.SetString("1000000000000000000", 10)

	// sqrtPrice = Q96 is price 1, so both sides split to the full
	// liquidity amount.
	amount0, amount1, err := tokenAmounts(100, 100, tickmath.Q96, liquidity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Cmp(liquidity) != 0 {
		t.Fatalf("amount0 = %s, want %s", amount0, liquidity)
	}
	if amount1.Cmp(liquidity) != 0 {
		t.Fatalf("amount1 = %s, want %s", amount1, liquidity)
	}
}

func TestTokenAmountsSplitConsistency(t *testing.T) {
	liquidity := big.NewInt(5_000_000_000)
	sqrtPrice, err := tickmath.SqrtRatioAtTick(6932)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amount0, amount1, err := tokenAmounts(6932, 6932, sqrtPrice, liquidity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() < 0 || amount1.Sign() < 0 {
		t.Fatalf("split amounts must be non-negative: %s, %s", amount0, amount1)
	}

	// amount0*amount1 == liquidity^2 up to integer rounding since
	// amount0 = L/sqrtP and amount1 = L*sqrtP.
	product := new(big.Int).Mul(amount0, amount1)
	square := new(big.Int).Mul(liquidity, liquidity)
	diff := new(big.Int).Sub(product, square)
	diff.Abs(diff)
	tolerance := new(big.Int).Div(square, big.NewInt(1_000_000))
	if diff.Cmp(tolerance) > 0 {
		t.Fatalf("split inconsistent with liquidity: product %s, square %s", product, square)
	}
}

func TestTokenAmountsBelowCurrentIsToken1(t *testing.T) {
	amount0, amount1, err := tokenAmounts(90, 100, tickmath.Q96, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() != 0 {
		t.Fatalf("below current tick amount0 should be zero, got %s", amount0)
	}
	if amount1.Sign() <= 0 {
		t.Fatalf("below current tick amount1 should be positive, got %s", amount1)
	}
}

func TestTokenAmountsAboveCurrentIsToken0(t *testing.T) {
	amount0, amount1, err := tokenAmounts(110, 100, tickmath.Q96, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount1.Sign() != 0 {
		t.Fatalf("above current tick amount1 should be zero, got %s", amount1)
	}
	if amount0.Sign() <= 0 {
		t.Fatalf("above current tick amount0 should be positive, got %s", amount0)
	}
}

func TestTokenAmountsZeroAvailable(t *testing.T) {
	amount0, amount1, err := tokenAmounts(90, 100, tickmath.Q96, new(big.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() != 0 || amount1.Sign() != 0 {
		t.Fatalf("zero available should produce zero amounts")
	}
}

func TestAdjustAmountsUsesFallbackPrice(t *testing.T) {
	price := 2.5
	token0 := model.Token{Decimals: 6, PriceUSD: &price}
	token1 := model.Token{Decimals: 6}

	info := model.LiquidityInfo{
		Amount0: big.NewInt(4_000_000),
		Amount1: big.NewInt(10_000_000),
	}
	adjustAmounts(&info, token0, token1, 1.0)

	if info.Amount0Adjusted.String() != "4" {
		t.Fatalf("amount0 adjusted = %s, want 4", info.Amount0Adjusted)
	}
	if info.Amount0USD.String() != "10" {
		t.Fatalf("amount0 usd = %s, want 10", info.Amount0USD)
	}
	// token1 has no price feed: the configured fallback applies.
	if info.Amount1USD.String() != "10" {
		t.Fatalf("amount1 usd = %s, want fallback-derived 10", info.Amount1USD)
	}
}
