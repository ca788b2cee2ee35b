package discovery

import "sync"

// SeenSet records mints that have already been surfaced in this process.
// It only grows until Clear is called. Safe for concurrent use.
type SeenSet struct {
	mu    sync.RWMutex
	mints map[string]struct{}
}

// NewSeenSet creates an empty seen set.
func NewSeenSet() *SeenSet {
	return &SeenSet{mints: make(map[string]struct{})}
}

// Add claims mint and reports whether it was not seen before.
// Check-and-insert is atomic, so two callers never both claim one mint.
func (s *SeenSet) Add(mint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mints[mint]; ok {
		return false
	}
	s.mints[mint] = struct{}{}
	return true
}

// Contains reports whether mint has been seen.
func (s *SeenSet) Contains(mint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.mints[mint]
	return ok
}

// Remove releases a claim made by Add that was never surfaced.
func (s *SeenSet) Remove(mint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.mints, mint)
}

// Clear forgets every mint.
func (s *SeenSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mints = make(map[string]struct{})
}

// Len returns the number of seen mints.
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.mints)
}
