package liquidity

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/tickmath"
)

type fakeReader struct {
	state        model.PoolState
	stateErr     error
	words        map[int16]*big.Int
	wordsErr     error
	ticks        map[int32]model.TickRecord
	ticksErr     error
	observations []model.Observation
	obsErr       error

	requestedWords []int16
	requestedTicks []int32
}

func (f *fakeReader) ReadPoolState(ctx context.Context, pool string) (model.PoolState, error) {
	return f.state, f.stateErr
}

func (f *fakeReader) ReadBitmapWords(ctx context.Context, pool string, wordIndexes []int16) (map[int16]*big.Int, error) {
	f.requestedWords = wordIndexes
	return f.words, f.wordsErr
}

func (f *fakeReader) ReadTicks(ctx context.Context, pool string, ticks []int32) (map[int32]model.TickRecord, error) {
	f.requestedTicks = ticks
	return f.ticks, f.ticksErr
}

func (f *fakeReader) ReadObservations(ctx context.Context, pool string, secondsAgo []uint32) ([]model.Observation, error) {
	return f.observations, f.obsErr
}

func basePoolState() model.PoolState {
	sqrtPrice, _ := tickmath.SqrtRatioAtTick(100)
	return model.PoolState{
		Address:      "0x1111111111111111111111111111111111111111",
		Token0:       model.Token{Symbol: "WETH", Decimals: 18},
		Token1:       model.Token{Symbol: "USDC", Decimals: 6},
		Tick:         100,
		SqrtPriceX96: sqrtPrice,
		TickSpacing:  10,
		Liquidity:    big.NewInt(1000),
	}
}

func distributionReader() *fakeReader {
	return &fakeReader{
		state: basePoolState(),
		words: EncodeTicks([]int32{90, 110}, 10),
		ticks: map[int32]model.TickRecord{
			90:  {Tick: 90, LiquidityNet: big.NewInt(200), LiquidityGross: big.NewInt(200), Initialized: true},
			110: {Tick: 110, LiquidityNet: big.NewInt(-150), LiquidityGross: big.NewInt(150), Initialized: true},
		},
	}
}

func TestTickLiquidityDistribution(t *testing.T) {
	reader := distributionReader()
	engine := NewEngine(reader, nil, Config{DefaultTokenPriceUSD: 1}, nil)

	infos, err := engine.TickLiquidityDistribution(context.Background(), "0x1111", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 infos, got %d", len(infos))
	}
	if len(reader.requestedWords) != 5 {
		t.Fatalf("expected 5 word reads for radius 2, got %d", len(reader.requestedWords))
	}

	wantAvailable := map[int32]int64{90: 800, 100: 1000, 110: 850}
	for _, info := range infos {
		want, ok := wantAvailable[info.Tick]
		if !ok {
			t.Fatalf("unexpected tick %d", info.Tick)
		}
		if info.Available.Cmp(big.NewInt(want)) != 0 {
			t.Fatalf("available[%d] = %s, want %d", info.Tick, info.Available, want)
		}
		if info.Amount0.Sign() < 0 || info.Amount1.Sign() < 0 {
			t.Fatalf("amounts must be non-negative at tick %d", info.Tick)
		}
	}

	if !infos[1].IsCurrentTick {
		t.Fatalf("middle info should be the current tick: %+v", infos[1])
	}
	if infos[1].Initialized {
		t.Fatalf("force-inserted current tick should not be marked initialized")
	}
	if infos[1].Amount0.Sign() <= 0 || infos[1].Amount1.Sign() <= 0 {
		t.Fatalf("current tick should split into both tokens: %+v", infos[1])
	}
}

func TestTickLiquidityDistributionDegradedWords(t *testing.T) {
	reader := distributionReader()
	// Simulate one failed word read: only the current word survives.
	reader.words = EncodeTicks([]int32{90, 110}, 10)

	engine := NewEngine(reader, nil, Config{}, nil)
	infos, err := engine.TickLiquidityDistribution(context.Background(), "0x1111", 8)
	if err != nil {
		t.Fatalf("degraded word scan must not fail: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected reduced-precision result, got %d infos", len(infos))
	}
}

func TestTickLiquidityDistributionBaseStateFatal(t *testing.T) {
	reader := distributionReader()
	reader.stateErr = errors.New("rpc timeout")

	engine := NewEngine(reader, nil, Config{}, nil)
	_, err := engine.TickLiquidityDistribution(context.Background(), "0x1111", 2)
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindChainRead {
		t.Fatalf("expected chain read failure, got %v", err)
	}
}

func TestTickLiquidityDistributionInvalidSpacing(t *testing.T) {
	reader := distributionReader()
	reader.state.TickSpacing = 0

	engine := NewEngine(reader, nil, Config{}, nil)
	_, err := engine.TickLiquidityDistribution(context.Background(), "0x1111", 2)
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindInvalidPoolState {
		t.Fatalf("expected invalid pool state, got %v", err)
	}
}

func TestTWAPFromEngine(t *testing.T) {
	const window = uint32(600)
	reader := distributionReader()
	reader.observations = []model.Observation{
		{SecondsAgo: window, TickCumulative: big.NewInt(0)},
		{SecondsAgo: 0, TickCumulative: big.NewInt(int64(window) * 100)},
	}

	engine := NewEngine(reader, nil, Config{}, nil)
	result, err := engine.TWAP(context.Background(), "0x1111", window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AverageTick != 100 {
		t.Fatalf("average tick = %d, want 100", result.AverageTick)
	}
	if result.TWAPRatios.Token1PerToken0 != result.CurrentRatios.Token1PerToken0 {
		t.Fatalf("constant-tick series should match instantaneous ratios: %+v", result)
	}
	if len(result.Observations) != 2 {
		t.Fatalf("expected observations echoed back")
	}
}

func TestTWAPInsufficientHistory(t *testing.T) {
	reader := distributionReader()
	reader.obsErr = ErrInsufficientHistory

	engine := NewEngine(reader, nil, Config{}, nil)
	_, err := engine.TWAP(context.Background(), "0x1111", 600)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected insufficient history sentinel, got %v", err)
	}

	_, err = engine.TWAL(context.Background(), "0x1111", 600)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected insufficient history sentinel from TWAL, got %v", err)
	}
}

func TestTWALFromEngine(t *testing.T) {
	const window = uint32(100)
	liquidity := big.NewInt(1000)
	delta := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(window)), 128)
	delta.Div(delta, liquidity)

	reader := distributionReader()
	reader.observations = []model.Observation{
		{SecondsAgo: window, TickCumulative: big.NewInt(0), SecondsPerLiquidityCumulativeX128: big.NewInt(0)},
		{SecondsAgo: 0, TickCumulative: big.NewInt(0), SecondsPerLiquidityCumulativeX128: delta},
	}

	engine := NewEngine(reader, nil, Config{}, nil)
	result, err := engine.TWAL(context.Background(), "0x1111", window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TWAL.Cmp(liquidity) != 0 {
		t.Fatalf("twal = %s, want %s", result.TWAL, liquidity)
	}
	if result.CurrentTick != 100 {
		t.Fatalf("current tick = %d, want 100", result.CurrentTick)
	}
}
