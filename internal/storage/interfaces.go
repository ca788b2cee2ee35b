package storage

import (
	"context"

	"graduation-scanner/internal/domain"
)

// CandidateStore provides access to candidate_calls storage (call history).
type CandidateStore interface {
	// Insert adds a surfaced candidate. Returns ErrDuplicateKey if candidate_id exists.
	Insert(ctx context.Context, r *domain.CandidateRecord) error

	// GetByID retrieves a record by candidate ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, candidateID string) (*domain.CandidateRecord, error)

	// GetByMint retrieves every surfacing of a mint, ordered by scanned_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.CandidateRecord, error)

	// GetByTimeRange retrieves records scanned within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.CandidateRecord, error)
}

// PairSnapshotStore provides access to pair_snapshots storage.
type PairSnapshotStore interface {
	// InsertBulk adds snapshots. Fails entire batch on duplicate (pair_address, observed_at_ms).
	InsertBulk(ctx context.Context, snapshots []*domain.PairSnapshot) error

	// GetByPair retrieves all snapshots of a pair, ordered by observed_at ASC.
	GetByPair(ctx context.Context, pairAddress string) ([]*domain.PairSnapshot, error)

	// GetByTimeRange retrieves snapshots of a pair within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, pairAddress string, start, end int64) ([]*domain.PairSnapshot, error)
}
