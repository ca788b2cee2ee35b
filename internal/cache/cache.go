// Package cache holds short-lived pair feed responses keyed by request shape.
package cache

import (
	"context"
	"strings"
	"time"

	"graduation-scanner/internal/domain"
)

// DefaultTTL is how long a cached fetch stays valid.
const DefaultTTL = 30 * time.Second

// Store keeps the last pair list fetched for a key.
// An entry is valid while now - fetched_at < TTL.
type Store interface {
	// Get returns a copy of the cached pairs when a valid entry exists.
	Get(ctx context.Context, key string) ([]domain.Pair, bool)

	// Set records pairs fetched now under key.
	Set(ctx context.Context, key string, pairs []domain.Pair)
}

// Key builds a cache key from an operation name and its parameters.
func Key(op string, params ...string) string {
	if len(params) == 0 {
		return op
	}
	return op + ":" + strings.Join(params, ":")
}

func clonePairs(pairs []domain.Pair) []domain.Pair {
	if pairs == nil {
		return []domain.Pair{}
	}
	out := make([]domain.Pair, len(pairs))
	copy(out, pairs)
	return out
}
