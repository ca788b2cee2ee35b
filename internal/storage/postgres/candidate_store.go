package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage"
)

// CandidateStore implements storage.CandidateStore using PostgreSQL.
type CandidateStore struct {
	pool *Pool
}

// NewCandidateStore creates a new CandidateStore.
func NewCandidateStore(pool *Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandidateStore = (*CandidateStore)(nil)

const candidateColumns = `
	candidate_id, mint, pair_address, symbol, preset, score, passes, failures,
	liquidity_usd, market_cap, volume_5m, holders, concentration, scanned_at, created_at`

// Insert adds a surfaced candidate. Returns ErrDuplicateKey if candidate_id exists.
func (s *CandidateStore) Insert(ctx context.Context, r *domain.CandidateRecord) (err error) {
	if r == nil || r.CandidateID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("insert_candidate", start, err) }(time.Now())

	query := `
		INSERT INTO candidate_calls (
			candidate_id, mint, pair_address, symbol, preset, score, passes, failures,
			liquidity_usd, market_cap, volume_5m, holders, concentration, scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	failures := r.Failures
	if failures == nil {
		failures = []string{}
	}

	_, err = s.pool.Exec(ctx, query,
		r.CandidateID,
		r.Mint,
		r.PairAddress,
		r.Symbol,
		r.Preset,
		r.Score,
		r.Passes,
		failures,
		r.LiquidityUSD,
		r.MarketCap,
		r.Volume5m,
		r.Holders,
		r.Concentration,
		r.ScannedAt,
	)
	return translate("insert candidate", err)
}

// GetByID retrieves a record by candidate ID. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByID(ctx context.Context, candidateID string) (_ *domain.CandidateRecord, err error) {
	defer func(start time.Time) { observe("get_candidate", start, err) }(time.Now())

	query := `SELECT ` + candidateColumns + `
		FROM candidate_calls
		WHERE candidate_id = $1
	`

	r, err := scanCandidate(s.pool.QueryRow(ctx, query, candidateID))
	if err != nil {
		return nil, translate("get candidate by id", err)
	}
	return r, nil
}

// GetByMint retrieves every surfacing of a mint, ordered by scanned_at ASC.
func (s *CandidateStore) GetByMint(ctx context.Context, mint string) (_ []*domain.CandidateRecord, err error) {
	defer func(start time.Time) { observe("get_candidates_by_mint", start, err) }(time.Now())

	query := `SELECT ` + candidateColumns + `
		FROM candidate_calls
		WHERE mint = $1
		ORDER BY scanned_at ASC, candidate_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, translate("get candidates by mint", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// GetByTimeRange retrieves records scanned within [start, end] (inclusive).
func (s *CandidateStore) GetByTimeRange(ctx context.Context, start, end int64) (_ []*domain.CandidateRecord, err error) {
	defer func(t time.Time) { observe("get_candidates_by_time_range", t, err) }(time.Now())

	query := `SELECT ` + candidateColumns + `
		FROM candidate_calls
		WHERE scanned_at >= $1 AND scanned_at <= $2
		ORDER BY scanned_at ASC, candidate_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, translate("get candidates by time range", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// scanCandidate scans a single row into a CandidateRecord.
func scanCandidate(row pgx.Row) (*domain.CandidateRecord, error) {
	var r domain.CandidateRecord

	err := row.Scan(
		&r.CandidateID,
		&r.Mint,
		&r.PairAddress,
		&r.Symbol,
		&r.Preset,
		&r.Score,
		&r.Passes,
		&r.Failures,
		&r.LiquidityUSD,
		&r.MarketCap,
		&r.Volume5m,
		&r.Holders,
		&r.Concentration,
		&r.ScannedAt,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanCandidates scans multiple rows into a slice of CandidateRecord.
func scanCandidates(rows pgx.Rows) ([]*domain.CandidateRecord, error) {
	var records []*domain.CandidateRecord

	for rows.Next() {
		r, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}

	return records, nil
}
