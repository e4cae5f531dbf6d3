package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/chain"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/liquidity"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// AccessorConfig tunes retry behavior for required reads.
type AccessorConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Accessor reads point-in-time pool state through batched eth_calls. It
// implements liquidity.StateReader: each stage is one JSON-RPC batch round
// trip regardless of how many slots it touches.
type Accessor struct {
	client *chain.Client
	cfg    AccessorConfig
	logger *zap.Logger
}

// NewAccessor builds an accessor over a chain client.
func NewAccessor(client *chain.Client, cfg AccessorConfig, logger *zap.Logger) *Accessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accessor{client: client, cfg: cfg, logger: logger}
}

// ReadPoolState fetches slot0, liquidity, and tickSpacing in one batch.
func (a *Accessor) ReadPoolState(ctx context.Context, pool string) (model.PoolState, error) {
	poolAddr, err := parsePoolAddress(pool)
	if err != nil {
		return model.PoolState{}, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolState{}, err
	}

	methods := []string{"slot0", "liquidity", "tickSpacing"}
	batch := make([]rpc.BatchElem, 0, len(methods))
	for _, method := range methods {
		elem, err := callElem(poolABI, poolAddr, method)
		if err != nil {
			return model.PoolState{}, err
		}
		batch = append(batch, elem)
	}

	err = chain.WithRetry(ctx, a.cfg.MaxRetries, a.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := a.client.BatchCall(ctx, batch); err != nil {
			a.logger.Warn("pool state batch failed", zap.String("pool", pool), zap.Error(err))
			return err
		}
		for i, elem := range batch {
			if elem.Error != nil {
				return fmt.Errorf("call %s: %w", methods[i], elem.Error)
			}
		}
		return nil
	})
	if err != nil {
		return model.PoolState{}, err
	}

	state := model.PoolState{Address: poolAddr.Hex()}

	slot0Values, err := unpackElem(poolABI, "slot0", batch[0])
	if err != nil {
		return model.PoolState{}, err
	}
	if len(slot0Values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0 returned %d values", len(slot0Values))
	}
	if state.SqrtPriceX96, err = asBigInt(slot0Values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickValue, err := asBigInt(slot0Values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	if state.Tick, err = int24FromBig(tickValue); err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}

	liquidityValues, err := unpackElem(poolABI, "liquidity", batch[1])
	if err != nil {
		return model.PoolState{}, err
	}
	if state.Liquidity, err = asBigInt(liquidityValues[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	spacingValues, err := unpackElem(poolABI, "tickSpacing", batch[2])
	if err != nil {
		return model.PoolState{}, err
	}
	spacingValue, err := asBigInt(spacingValues[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}
	if state.TickSpacing, err = int24FromBig(spacingValue); err != nil {
		return model.PoolState{}, fmt.Errorf("tick spacing: %w", err)
	}

	return state, nil
}

// ReadBitmapWords fetches the requested bitmap words in one batch. A word
// whose individual call failed is left out of the result so the scan
// degrades instead of aborting.
func (a *Accessor) ReadBitmapWords(ctx context.Context, pool string, wordIndexes []int16) (map[int16]*big.Int, error) {
	poolAddr, err := parsePoolAddress(pool)
	if err != nil {
		return nil, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	batch := make([]rpc.BatchElem, 0, len(wordIndexes))
	for _, wordIndex := range wordIndexes {
		elem, err := callElem(poolABI, poolAddr, "tickBitmap", wordIndex)
		if err != nil {
			return nil, err
		}
		batch = append(batch, elem)
	}

	if err := a.client.BatchCall(ctx, batch); err != nil {
		return nil, fmt.Errorf("tick bitmap batch: %w", err)
	}

	words := make(map[int16]*big.Int, len(wordIndexes))
	for i, elem := range batch {
		if elem.Error != nil {
			a.logger.Warn("bitmap word read failed",
				zap.String("pool", pool),
				zap.Int16("word", wordIndexes[i]),
				zap.Error(elem.Error),
			)
			continue
		}
		values, err := unpackElem(poolABI, "tickBitmap", elem)
		if err != nil {
			a.logger.Warn("bitmap word unpack failed",
				zap.String("pool", pool),
				zap.Int16("word", wordIndexes[i]),
				zap.Error(err),
			)
			continue
		}
		word, err := asBigInt(values[0])
		if err != nil {
			continue
		}
		words[wordIndexes[i]] = word
	}
	return words, nil
}

// ReadTicks fetches the given tick records in one batch. Individual slot
// failures degrade the result the same way bitmap word failures do.
func (a *Accessor) ReadTicks(ctx context.Context, pool string, ticks []int32) (map[int32]model.TickRecord, error) {
	poolAddr, err := parsePoolAddress(pool)
	if err != nil {
		return nil, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	batch := make([]rpc.BatchElem, 0, len(ticks))
	for _, tick := range ticks {
		elem, err := callElem(poolABI, poolAddr, "ticks", big.NewInt(int64(tick)))
		if err != nil {
			return nil, err
		}
		batch = append(batch, elem)
	}

	if err := a.client.BatchCall(ctx, batch); err != nil {
		return nil, fmt.Errorf("ticks batch: %w", err)
	}

	records := make(map[int32]model.TickRecord, len(ticks))
	for i, elem := range batch {
		if elem.Error != nil {
			a.logger.Warn("tick read failed",
				zap.String("pool", pool),
				zap.Int32("tick", ticks[i]),
				zap.Error(elem.Error),
			)
			continue
		}
		values, err := unpackElem(poolABI, "ticks", elem)
		if err != nil || len(values) < 8 {
			a.logger.Warn("tick unpack failed",
				zap.String("pool", pool),
				zap.Int32("tick", ticks[i]),
				zap.Error(err),
			)
			continue
		}

		gross, errGross := asBigInt(values[0])
		net, errNet := asBigInt(values[1])
		initialized, ok := values[7].(bool)
		if errGross != nil || errNet != nil || !ok {
			continue
		}
		records[ticks[i]] = model.TickRecord{
			Tick:           ticks[i],
			LiquidityNet:   net,
			LiquidityGross: gross,
			Initialized:    initialized,
		}
	}
	return records, nil
}

// ReadObservations calls observe for the given secondsAgo list. The oracle's
// "OLD" revert maps to liquidity.ErrInsufficientHistory; retrying cannot
// produce older history, so this read is never retried.
func (a *Accessor) ReadObservations(ctx context.Context, pool string, secondsAgo []uint32) ([]model.Observation, error) {
	poolAddr, err := parsePoolAddress(pool)
	if err != nil {
		return nil, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	data, err := poolABI.Pack("observe", secondsAgo)
	if err != nil {
		return nil, fmt.Errorf("pack observe: %w", err)
	}
	resp, err := a.client.CallContract(ctx, callMsg(poolAddr, data), nil)
	if err != nil {
		if isOldRevert(err) {
			return nil, liquidity.ErrInsufficientHistory
		}
		return nil, fmt.Errorf("call observe: %w", err)
	}

	values, err := poolABI.Unpack("observe", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack observe: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("observe returned %d values", len(values))
	}
	tickCumulatives, err := asBigIntSlice(values[0])
	if err != nil {
		return nil, fmt.Errorf("tick cumulatives: %w", err)
	}
	secondsPerLiquidity, err := asBigIntSlice(values[1])
	if err != nil {
		return nil, fmt.Errorf("seconds per liquidity: %w", err)
	}
	if len(tickCumulatives) != len(secondsAgo) || len(secondsPerLiquidity) != len(secondsAgo) {
		return nil, fmt.Errorf("observe cardinality mismatch")
	}

	observations := make([]model.Observation, len(secondsAgo))
	for i := range secondsAgo {
		observations[i] = model.Observation{
			SecondsAgo:                        secondsAgo[i],
			TickCumulative:                    tickCumulatives[i],
			SecondsPerLiquidityCumulativeX128: secondsPerLiquidity[i],
		}
	}
	return observations, nil
}

// isOldRevert recognizes the oracle's insufficient-history revert.
func isOldRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "OLD")
}

func parsePoolAddress(pool string) (common.Address, error) {
	if !common.IsHexAddress(pool) {
		return common.Address{}, fmt.Errorf("invalid pool address: %s", pool)
	}
	return common.HexToAddress(pool), nil
}
