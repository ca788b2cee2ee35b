package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage"
)

// PairSnapshotStore implements storage.PairSnapshotStore using ClickHouse.
type PairSnapshotStore struct {
	conn *Conn
}

// NewPairSnapshotStore creates a new PairSnapshotStore.
func NewPairSnapshotStore(conn *Conn) *PairSnapshotStore {
	return &PairSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PairSnapshotStore = (*PairSnapshotStore)(nil)

const snapshotColumns = `
	pair_address, mint, observed_at_ms, price_usd, liquidity_usd,
	volume_5m, volume_1h, volume_24h, buys_5m, sells_5m, market_cap, score`

// InsertBulk adds snapshots. Fails entire batch on duplicate (pair_address, observed_at_ms).
// MergeTree does not enforce keys, so duplicates are checked before the batch is sent.
func (s *PairSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PairSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	defer func(start time.Time) {
		if errors.Is(err, storage.ErrDuplicateKey) || errors.Is(err, storage.ErrInvalidInput) {
			observe("insert_pair_snapshots", start, nil)
			return
		}
		observe("insert_pair_snapshots", start, err)
	}(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		pairAddress  string
		observedAtMs int64
	}
	seen := make(map[key]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.PairAddress == "" {
			return storage.ErrInvalidInput
		}
		k := key{snap.PairAddress, snap.ObservedAtMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.PairAddress, snap.ObservedAtMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO pair_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.PairAddress, snap.Mint, uint64(snap.ObservedAtMs),
			snap.PriceUSD, snap.LiquidityUSD,
			snap.Volume5m, snap.Volume1h, snap.Volume24h,
			uint32(snap.Buys5m), uint32(snap.Sells5m),
			snap.MarketCap, snap.Score,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPair retrieves all snapshots of a pair, ordered by observed_at ASC.
func (s *PairSnapshotStore) GetByPair(ctx context.Context, pairAddress string) (_ []*domain.PairSnapshot, err error) {
	defer func(start time.Time) { observe("get_pair_snapshots", start, err) }(time.Now())

	query := `SELECT ` + snapshotColumns + `
		FROM pair_snapshots
		WHERE pair_address = ?
		ORDER BY observed_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, pairAddress)
	if err != nil {
		return nil, fmt.Errorf("query by pair: %w", err)
	}
	defer rows.Close()

	return scanPairSnapshots(rows)
}

// GetByTimeRange retrieves snapshots of a pair within [start, end] (inclusive).
func (s *PairSnapshotStore) GetByTimeRange(ctx context.Context, pairAddress string, start, end int64) (_ []*domain.PairSnapshot, err error) {
	defer func(t time.Time) { observe("get_pair_snapshots_by_time_range", t, err) }(time.Now())

	query := `SELECT ` + snapshotColumns + `
		FROM pair_snapshots
		WHERE pair_address = ? AND observed_at_ms >= ? AND observed_at_ms <= ?
		ORDER BY observed_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, pairAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPairSnapshots(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *PairSnapshotStore) exists(ctx context.Context, pairAddress string, observedAtMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM pair_snapshots
		WHERE pair_address = ? AND observed_at_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, pairAddress, uint64(observedAtMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPairSnapshots scans multiple rows.
func scanPairSnapshots(rows chRows) ([]*domain.PairSnapshot, error) {
	var snapshots []*domain.PairSnapshot

	for rows.Next() {
		var snap domain.PairSnapshot
		var observedAtMs uint64
		var buys, sells uint32

		err := rows.Scan(
			&snap.PairAddress, &snap.Mint, &observedAtMs,
			&snap.PriceUSD, &snap.LiquidityUSD,
			&snap.Volume5m, &snap.Volume1h, &snap.Volume24h,
			&buys, &sells,
			&snap.MarketCap, &snap.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair snapshot row: %w", err)
		}

		snap.ObservedAtMs = int64(observedAtMs)
		snap.Buys5m = int(buys)
		snap.Sells5m = int(sells)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair snapshot rows: %w", err)
	}

	return snapshots, nil
}
