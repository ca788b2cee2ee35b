package memory

import (
	"context"
	"sort"
	"sync"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage"
)

// CandidateStore is an in-memory implementation of storage.CandidateStore.
type CandidateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CandidateRecord // keyed by candidate_id
	now  func() int64
}

// NewCandidateStore creates a new in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{
		data: make(map[string]*domain.CandidateRecord),
		now:  nowMs,
	}
}

// Insert adds a surfaced candidate. Returns ErrDuplicateKey if candidate_id exists.
func (s *CandidateStore) Insert(_ context.Context, r *domain.CandidateRecord) error {
	if r == nil || r.CandidateID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.CandidateID]; exists {
		return storage.ErrDuplicateKey
	}

	rec := copyRecord(r)
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now()
	}
	s.data[r.CandidateID] = rec
	return nil
}

// GetByID retrieves a record by candidate ID. Returns ErrNotFound if not exists.
func (s *CandidateStore) GetByID(_ context.Context, candidateID string) (*domain.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[candidateID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// GetByMint retrieves every surfacing of a mint, ordered by scanned_at ASC.
func (s *CandidateStore) GetByMint(_ context.Context, mint string) ([]*domain.CandidateRecord, error) {
	return s.collect(func(r *domain.CandidateRecord) bool {
		return r.Mint == mint
	}), nil
}

// GetByTimeRange retrieves records scanned within [start, end] (inclusive).
func (s *CandidateStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.CandidateRecord, error) {
	return s.collect(func(r *domain.CandidateRecord) bool {
		return r.ScannedAt >= start && r.ScannedAt <= end
	}), nil
}

func (s *CandidateStore) collect(match func(*domain.CandidateRecord) bool) []*domain.CandidateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandidateRecord
	for _, r := range s.data {
		if match(r) {
			result = append(result, copyRecord(r))
		}
	}

	// Sort by scanned_at ASC, candidate_id ASC
	sort.Slice(result, func(i, j int) bool {
		if result[i].ScannedAt != result[j].ScannedAt {
			return result[i].ScannedAt < result[j].ScannedAt
		}
		return result[i].CandidateID < result[j].CandidateID
	})

	return result
}

// copyRecord prevents callers from mutating stored records.
func copyRecord(r *domain.CandidateRecord) *domain.CandidateRecord {
	c := *r
	c.Failures = append([]string(nil), r.Failures...)
	if r.Holders != nil {
		h := *r.Holders
		c.Holders = &h
	}
	if r.Concentration != nil {
		v := *r.Concentration
		c.Concentration = &v
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.CandidateStore = (*CandidateStore)(nil)
