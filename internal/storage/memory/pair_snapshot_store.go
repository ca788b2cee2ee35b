package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage"
)

type snapshotKey struct {
	pairAddress  string
	observedAtMs int64
}

// PairSnapshotStore is an in-memory implementation of storage.PairSnapshotStore.
type PairSnapshotStore struct {
	mu     sync.RWMutex
	data   map[snapshotKey]*domain.PairSnapshot
	byPair map[string][]snapshotKey
}

// NewPairSnapshotStore creates a new in-memory pair snapshot store.
func NewPairSnapshotStore() *PairSnapshotStore {
	return &PairSnapshotStore{
		data:   make(map[snapshotKey]*domain.PairSnapshot),
		byPair: make(map[string][]snapshotKey),
	}
}

// InsertBulk adds snapshots atomically. Fails entire batch on any duplicate.
func (s *PairSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PairSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before writing
	batch := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.PairAddress == "" {
			return storage.ErrInvalidInput
		}
		k := snapshotKey{snap.PairAddress, snap.ObservedAtMs}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[k]; exists {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, snap := range snapshots {
		k := snapshotKey{snap.PairAddress, snap.ObservedAtMs}
		snapCopy := *snap
		s.data[k] = &snapCopy
		s.byPair[snap.PairAddress] = append(s.byPair[snap.PairAddress], k)
	}

	return nil
}

// GetByPair retrieves all snapshots of a pair, ordered by observed_at ASC.
func (s *PairSnapshotStore) GetByPair(_ context.Context, pairAddress string) ([]*domain.PairSnapshot, error) {
	return s.collect(pairAddress, func(int64) bool { return true }), nil
}

// GetByTimeRange retrieves snapshots of a pair within [start, end] (inclusive).
func (s *PairSnapshotStore) GetByTimeRange(_ context.Context, pairAddress string, start, end int64) ([]*domain.PairSnapshot, error) {
	return s.collect(pairAddress, func(ts int64) bool {
		return ts >= start && ts <= end
	}), nil
}

func (s *PairSnapshotStore) collect(pairAddress string, match func(int64) bool) []*domain.PairSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PairSnapshot
	for _, k := range s.byPair[pairAddress] {
		if !match(k.observedAtMs) {
			continue
		}
		snapCopy := *s.data[k]
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAtMs < result[j].ObservedAtMs
	})

	return result
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// Verify interface compliance at compile time.
var _ storage.PairSnapshotStore = (*PairSnapshotStore)(nil)
