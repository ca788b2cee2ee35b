package cache

import (
	"context"
	"sync"
	"time"

	"graduation-scanner/internal/domain"
)

type memoryEntry struct {
	pairs     []domain.Pair
	fetchedAt time.Time
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

var _ Store = (*Memory)(nil)

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithClock sets the time source used for fetch times and expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached pairs for key while the entry is valid.
// Expired entries are evicted.
func (m *Memory) Get(_ context.Context, key string) ([]domain.Pair, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if m.now().Sub(e.fetchedAt) >= m.ttl {
		m.mu.Lock()
		// Only evict the entry we looked at; a concurrent Set may have replaced it.
		if cur, ok := m.entries[key]; ok && cur.fetchedAt.Equal(e.fetchedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}

	return clonePairs(e.pairs), true
}

// Set stores a copy of pairs under key.
func (m *Memory) Set(_ context.Context, key string, pairs []domain.Pair) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		pairs:     clonePairs(pairs),
		fetchedAt: m.now(),
	}
}

// Purge removes expired entries and returns how many were removed.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if now.Sub(e.fetchedAt) >= m.ttl {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
