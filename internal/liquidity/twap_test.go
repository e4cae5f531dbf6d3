package liquidity

import (
	"errors"
	"math/big"
	"testing"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

func observation(secondsAgo uint32, tickCum int64, spl *big.Int) model.Observation {
	return model.Observation{
		SecondsAgo:                        secondsAgo,
		TickCumulative:                    big.NewInt(tickCum),
		SecondsPerLiquidityCumulativeX128: spl,
	}
}

func TestAverageTickReproducesConstantTick(t *testing.T) {
	// A linearly increasing cumulative means the instantaneous tick was
	// constant over the window.
	const tick = int64(12345)
	const window = uint32(3600)

	oldest := observation(window, 1_000_000, nil)
	newest := observation(0, 1_000_000+tick*int64(window), nil)

	got, err := averageTick(oldest, newest, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int64(got) != tick {
		t.Fatalf("average tick = %d, want %d", got, tick)
	}
}

func TestAverageTickTruncatesTowardNegativeInfinity(t *testing.T) {
	oldest := observation(2, 0, nil)
	newest := observation(0, -7, nil)

	got, err := averageTick(oldest, newest, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -4 {
		t.Fatalf("average tick = %d, want -4", got)
	}
}

func TestAverageTickZeroWindow(t *testing.T) {
	_, err := averageTick(observation(0, 0, nil), observation(0, 10, nil), 0)
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindPrecondition {
		t.Fatalf("expected precondition violation, got %v", err)
	}
}

func TestHarmonicMeanLiquidity(t *testing.T) {
	const window = uint32(100)
	liquidity := big.NewInt(1000)

	// spl delta for constant liquidity L over T seconds is (T<<128)/L.
	delta := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(window)), 128)
	delta.Div(delta, liquidity)

	oldest := observation(window, 0, big.NewInt(500))
	newest := observation(0, 0, new(big.Int).Add(big.NewInt(500), delta))

	got, err := harmonicMeanLiquidity(oldest, newest, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(liquidity) != 0 {
		t.Fatalf("twal = %s, want %s", got, liquidity)
	}
}

func TestHarmonicMeanLiquidityStalledCumulative(t *testing.T) {
	oldest := observation(100, 0, big.NewInt(500))
	newest := observation(0, 0, big.NewInt(500))

	_, err := harmonicMeanLiquidity(oldest, newest, 100)
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindInvalidPoolState {
		t.Fatalf("expected invalid pool state, got %v", err)
	}
}

func TestRatiosAtTick(t *testing.T) {
	token := model.Token{Decimals: 18}
	ratios := ratiosAtTick(0, token, token)
	if ratios.Token1PerToken0 != 1 || ratios.Token0PerToken1 != 1 {
		t.Fatalf("tick 0 ratios should be 1: %+v", ratios)
	}

	ratios = ratiosAtTick(6932, token, token)
	if ratios.Token1PerToken0 < 1.99 || ratios.Token1PerToken0 > 2.01 {
		t.Fatalf("tick 6932 price should be ~2: %+v", ratios)
	}
	inverse := 1 / ratios.Token1PerToken0
	if ratios.Token0PerToken1 != inverse {
		t.Fatalf("ratio inversion mismatch: %+v", ratios)
	}
}
