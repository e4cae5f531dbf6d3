package liquidity

import (
	"context"
	"errors"
	"math/big"

	"go.uber.org/zap"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// StateReader is the chain state accessor contract. Implementations own
// connection pooling, retries, and chain selection; the engine treats every
// method as a pure point-in-time query. ReadBitmapWords and ReadTicks are
// batched: one call covers the whole index list in a single round trip.
type StateReader interface {
	// ReadPoolState returns slot0, liquidity, and tickSpacing in one batch.
	ReadPoolState(ctx context.Context, pool string) (model.PoolState, error)
	// ReadBitmapWords returns the bitmap words for the given indexes. Words
	// whose individual read failed are simply absent from the result.
	ReadBitmapWords(ctx context.Context, pool string, wordIndexes []int16) (map[int16]*big.Int, error)
	// ReadTicks returns the tick records for the given tick indexes.
	ReadTicks(ctx context.Context, pool string, ticks []int32) (map[int32]model.TickRecord, error)
	// ReadObservations returns cumulative oracle observations for each
	// secondsAgo. An oracle lacking old enough history surfaces as
	// ErrInsufficientHistory.
	ReadObservations(ctx context.Context, pool string, secondsAgo []uint32) ([]model.Observation, error)
}

// TokenSource supplies token metadata and optional USD unit prices for a
// pool's pair.
type TokenSource interface {
	TokenPair(ctx context.Context, pool string) (model.Token, model.Token, error)
}

// Config carries the engine's explicit configuration. No ambient globals:
// everything the engine needs is passed in here.
type Config struct {
	// WordRange is the default bitmap word radius scanned around the
	// current price when a call does not specify one.
	WordRange int
	// CliffThreshold is the default relative jump flagging a cliff.
	CliffThreshold float64
	// DefaultTokenPriceUSD is the fallback unit price for tokens without a
	// known USD price.
	// TODO(review): the fallback constant was inherited from the original
	// dashboard with no rationale; validate against real pool data.
	DefaultTokenPriceUSD float64
}

// DefaultWordRange bounds the bitmap scan to a practical window around the
// current price.
const DefaultWordRange = 5

// Engine reconstructs the active-liquidity curve of a concentrated-liquidity
// pool from point-in-time chain state. It is stateless across calls and safe
// for concurrent use.
type Engine struct {
	reader StateReader
	tokens TokenSource
	cfg    Config
	logger *zap.Logger
}

// NewEngine builds an engine. A nil logger is replaced with a no-op one.
func NewEngine(reader StateReader, tokens TokenSource, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WordRange <= 0 {
		cfg.WordRange = DefaultWordRange
	}
	if cfg.CliffThreshold <= 0 {
		cfg.CliffThreshold = DefaultCliffThreshold
	}
	return &Engine{reader: reader, tokens: tokens, cfg: cfg, logger: logger}
}

// TickLiquidityDistribution reconstructs the active-liquidity curve around
// the current price: one LiquidityInfo per initialized tick within wordRange
// bitmap words of the current word, ascending by tick, with the current tick
// always present. Failed reads of individual bitmap words degrade precision
// instead of failing the call; failed base-state reads are fatal.
func (e *Engine) TickLiquidityDistribution(ctx context.Context, pool string, wordRange int) ([]model.LiquidityInfo, error) {
	if wordRange <= 0 {
		wordRange = e.cfg.WordRange
	}

	state, err := e.poolState(ctx, pool)
	if err != nil {
		return nil, err
	}

	wordIndexes := WordRange(state.Tick, state.TickSpacing, wordRange)
	words, err := e.reader.ReadBitmapWords(ctx, pool, wordIndexes)
	if err != nil {
		return nil, chainReadError("read bitmap words", err)
	}
	if len(words) < len(wordIndexes) {
		e.logger.Warn("bitmap scan degraded",
			zap.String("pool", pool),
			zap.Int("requested", len(wordIndexes)),
			zap.Int("read", len(words)),
		)
	}

	tickList := CollectTicks(words, state.Tick, state.TickSpacing)

	recordMap, err := e.reader.ReadTicks(ctx, pool, tickList)
	if err != nil {
		return nil, chainReadError("read tick records", err)
	}

	records := make([]model.TickRecord, 0, len(tickList))
	for _, tick := range tickList {
		rec, ok := recordMap[tick]
		if !ok {
			if tick != state.Tick {
				continue
			}
			rec = model.TickRecord{Tick: tick, LiquidityNet: new(big.Int), LiquidityGross: new(big.Int)}
		}
		records = append(records, rec)
	}

	c, err := accumulate(records, state.Tick, state.Liquidity)
	if err != nil {
		return nil, err
	}

	infos := make([]model.LiquidityInfo, 0, len(c.ticks))
	for _, tick := range c.ticks {
		rec := c.records[tick]
		info := model.LiquidityInfo{
			Tick:           tick,
			LiquidityNet:   netOf(rec),
			LiquidityGross: grossOf(rec),
			Available:      c.available[tick],
			Clamped:        c.clamped[tick],
			Initialized:    rec.Initialized,
			IsCurrentTick:  tick == state.Tick,
		}
		if info.Clamped {
			e.logger.Warn("negative available liquidity clamped",
				zap.String("pool", pool),
				zap.Int32("tick", tick),
			)
		}

		amount0, amount1, err := tokenAmounts(tick, state.Tick, state.SqrtPriceX96, info.Available)
		if err != nil {
			return nil, err
		}
		info.Amount0 = amount0
		info.Amount1 = amount1
		adjustAmounts(&info, state.Token0, state.Token1, e.cfg.DefaultTokenPriceUSD)

		infos = append(infos, info)
	}

	return infos, nil
}

// DetectCliffs is the engine-configured variant of the package-level
// detector: a zero threshold falls back to the configured default.
func (e *Engine) DetectCliffs(infos []model.LiquidityInfo, startingLiquidity *big.Int, thresholdPct float64) ([]model.Cliff, error) {
	if thresholdPct <= 0 {
		thresholdPct = e.cfg.CliffThreshold
	}
	return DetectCliffs(infos, startingLiquidity, thresholdPct)
}

// TWAP computes the time-weighted average price over the past secondsAgo
// seconds and the instantaneous price for comparison. An oracle without old
// enough history yields ErrInsufficientHistory for the caller to branch on.
func (e *Engine) TWAP(ctx context.Context, pool string, secondsAgo uint32) (*TWAPResult, error) {
	state, observations, err := e.window(ctx, pool, secondsAgo)
	if err != nil {
		return nil, err
	}

	avgTick, err := averageTick(observations[0], observations[1], secondsAgo)
	if err != nil {
		return nil, err
	}

	return &TWAPResult{
		AverageTick:   avgTick,
		TWAPRatios:    ratiosAtTick(avgTick, state.Token0, state.Token1),
		CurrentRatios: ratiosAtTick(state.Tick, state.Token0, state.Token1),
		Observations:  observations,
	}, nil
}

// TWAL computes the harmonic-mean active liquidity over the past secondsAgo
// seconds alongside the pool's current liquidity.
func (e *Engine) TWAL(ctx context.Context, pool string, secondsAgo uint32) (*TWALResult, error) {
	state, observations, err := e.window(ctx, pool, secondsAgo)
	if err != nil {
		return nil, err
	}

	twal, err := harmonicMeanLiquidity(observations[0], observations[1], secondsAgo)
	if err != nil {
		return nil, err
	}

	return &TWALResult{
		TWAL:             twal,
		CurrentLiquidity: state.Liquidity,
		CurrentTick:      state.Tick,
		Observations:     observations,
	}, nil
}

func (e *Engine) window(ctx context.Context, pool string, secondsAgo uint32) (model.PoolState, []model.Observation, error) {
	if secondsAgo == 0 {
		return model.PoolState{}, nil, preconditionError("seconds ago must be positive")
	}

	state, err := e.poolState(ctx, pool)
	if err != nil {
		return model.PoolState{}, nil, err
	}

	observations, err := e.reader.ReadObservations(ctx, pool, []uint32{secondsAgo, 0})
	if err != nil {
		if errors.Is(err, ErrInsufficientHistory) {
			return model.PoolState{}, nil, err
		}
		return model.PoolState{}, nil, chainReadError("read observations", err)
	}
	if len(observations) != 2 {
		return model.PoolState{}, nil, invalidStateError("expected 2 observations, got %d", len(observations))
	}

	return state, observations, nil
}

func (e *Engine) poolState(ctx context.Context, pool string) (model.PoolState, error) {
	state, err := e.reader.ReadPoolState(ctx, pool)
	if err != nil {
		return model.PoolState{}, chainReadError("read pool state", err)
	}
	if state.TickSpacing <= 0 {
		return model.PoolState{}, invalidStateError("tick spacing %d must be positive", state.TickSpacing)
	}
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		return model.PoolState{}, invalidStateError("sqrt price must be positive")
	}
	if state.Liquidity == nil {
		state.Liquidity = new(big.Int)
	}

	if e.tokens != nil {
		token0, token1, err := e.tokens.TokenPair(ctx, pool)
		if err != nil {
			return model.PoolState{}, chainReadError("read token pair", err)
		}
		state.Token0 = token0
		state.Token1 = token1
	}

	return state, nil
}

func grossOf(rec model.TickRecord) *big.Int {
	if rec.LiquidityGross == nil {
		return new(big.Int)
	}
	return rec.LiquidityGross
}
