package dex

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/chain"
	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// PriceSource supplies USD unit prices by token address. Missing tokens
// report false; the engine applies its configured fallback.
type PriceSource interface {
	USDPrice(address string) (float64, bool)
}

// StaticPrices is a config-fed PriceSource keyed by lowercase address.
type StaticPrices map[string]float64

// NewStaticPrices normalizes address keys to lowercase.
func NewStaticPrices(prices map[string]float64) StaticPrices {
	out := make(StaticPrices, len(prices))
	for addr, price := range prices {
		out[strings.ToLower(addr)] = price
	}
	return out
}

func (p StaticPrices) USDPrice(address string) (float64, bool) {
	price, ok := p[strings.ToLower(address)]
	return price, ok
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.Token
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.Token)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.Token, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.Token) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenDirectory resolves a pool's token pair: addresses from the pool
// contract, metadata via ERC20 calls, USD prices from a PriceSource. It
// implements liquidity.TokenSource.
type TokenDirectory struct {
	client *chain.Client
	prices PriceSource
	logger *zap.Logger

	mu     sync.RWMutex
	pairs  map[common.Address][2]common.Address
	tokens *TokenMetaCache
}

// NewTokenDirectory builds a directory. prices may be nil when no feed is
// configured.
func NewTokenDirectory(client *chain.Client, prices PriceSource, logger *zap.Logger) *TokenDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenDirectory{
		client: client,
		prices: prices,
		logger: logger,
		pairs:  make(map[common.Address][2]common.Address),
		tokens: NewTokenMetaCache(),
	}
}

// TokenPair returns both token descriptors of a pool.
func (d *TokenDirectory) TokenPair(ctx context.Context, pool string) (model.Token, model.Token, error) {
	if !common.IsHexAddress(pool) {
		return model.Token{}, model.Token{}, fmt.Errorf("invalid pool address: %s", pool)
	}
	poolAddr := common.HexToAddress(pool)

	addresses, err := d.pairAddresses(ctx, poolAddr)
	if err != nil {
		return model.Token{}, model.Token{}, err
	}

	token0, err := d.token(ctx, addresses[0])
	if err != nil {
		return model.Token{}, model.Token{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := d.token(ctx, addresses[1])
	if err != nil {
		return model.Token{}, model.Token{}, fmt.Errorf("token1: %w", err)
	}
	return token0, token1, nil
}

func (d *TokenDirectory) pairAddresses(ctx context.Context, pool common.Address) ([2]common.Address, error) {
	d.mu.RLock()
	pair, ok := d.pairs[pool]
	d.mu.RUnlock()
	if ok {
		return pair, nil
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return [2]common.Address{}, err
	}

	methods := []string{"token0", "token1"}
	batch := make([]rpc.BatchElem, 0, len(methods))
	for _, method := range methods {
		elem, err := callElem(poolABI, pool, method)
		if err != nil {
			return [2]common.Address{}, err
		}
		batch = append(batch, elem)
	}
	if err := d.client.BatchCall(ctx, batch); err != nil {
		return [2]common.Address{}, fmt.Errorf("token pair batch: %w", err)
	}

	for i, method := range methods {
		if batch[i].Error != nil {
			return [2]common.Address{}, fmt.Errorf("call %s: %w", method, batch[i].Error)
		}
		values, err := unpackElem(poolABI, method, batch[i])
		if err != nil {
			return [2]common.Address{}, err
		}
		if pair[i], err = asAddress(values[0]); err != nil {
			return [2]common.Address{}, fmt.Errorf("%s: %w", method, err)
		}
	}

	d.mu.Lock()
	d.pairs[pool] = pair
	d.mu.Unlock()
	return pair, nil
}

func (d *TokenDirectory) token(ctx context.Context, address common.Address) (model.Token, error) {
	meta, ok := d.tokens.Get(address)
	if !ok {
		var err error
		meta, err = FetchTokenMeta(ctx, d.client, address, d.logger)
		if err != nil {
			return model.Token{}, err
		}
		d.tokens.Set(address, meta)
	}

	// Prices are resolved per call, not cached, so feed updates flow
	// through.
	meta.PriceUSD = nil
	if d.prices != nil {
		if price, ok := d.prices.USDPrice(address.Hex()); ok {
			meta.PriceUSD = &price
		}
	}
	return meta, nil
}
