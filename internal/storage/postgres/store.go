package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// Store provides Postgres persistence for distribution snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshot writes every tick row and cliff row of a snapshot in one
// batch round trip. Numeric columns wider than 64 bits are stored as text.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot model.DistributionSnapshot) error {
	if len(snapshot.Infos) == 0 && len(snapshot.Cliffs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, info := range snapshot.Infos {
		record := model.NewLiquidityInfoRecord(snapshot, info)
		batch.Queue(`
			INSERT INTO tick_liquidity (
				pool_address, tick, liquidity_net, liquidity_gross, available_liquidity,
				amount0, amount1, amount0_adjusted, amount1_adjusted, amount0_usd, amount1_usd,
				initialized, is_current_tick, clamped, observed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (pool_address, tick)
			DO UPDATE SET
				liquidity_net = EXCLUDED.liquidity_net,
				liquidity_gross = EXCLUDED.liquidity_gross,
				available_liquidity = EXCLUDED.available_liquidity,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				amount0_adjusted = EXCLUDED.amount0_adjusted,
				amount1_adjusted = EXCLUDED.amount1_adjusted,
				amount0_usd = EXCLUDED.amount0_usd,
				amount1_usd = EXCLUDED.amount1_usd,
				initialized = EXCLUDED.initialized,
				is_current_tick = EXCLUDED.is_current_tick,
				clamped = EXCLUDED.clamped,
				observed_at = EXCLUDED.observed_at,
				updated_at = now()
		`,
			record.PoolAddress,
			record.Tick,
			record.LiquidityNet,
			record.LiquidityGross,
			record.Available,
			record.Amount0,
			record.Amount1,
			record.Amount0Adjusted,
			record.Amount1Adjusted,
			record.Amount0USD,
			record.Amount1USD,
			record.Initialized,
			record.IsCurrentTick,
			record.Clamped,
			record.ObservedAt,
		)
	}
	for _, cliff := range snapshot.Cliffs {
		record := model.NewCliffRecord(snapshot, cliff)
		batch.Queue(`
			INSERT INTO liquidity_cliffs (
				pool_address, tick, previous_liquidity, current_liquidity, delta_pct,
				observed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,now(),now())
			ON CONFLICT (pool_address, tick)
			DO UPDATE SET
				previous_liquidity = EXCLUDED.previous_liquidity,
				current_liquidity = EXCLUDED.current_liquidity,
				delta_pct = EXCLUDED.delta_pct,
				observed_at = EXCLUDED.observed_at,
				updated_at = now()
		`,
			record.PoolAddress,
			record.Tick,
			record.PreviousLiquidity,
			record.CurrentLiquidity,
			record.DeltaPct,
			record.ObservedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
