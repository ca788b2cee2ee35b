package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"graduation-scanner/internal/domain"
)

// DefaultRedisPrefix namespaces pair cache keys in Redis.
const DefaultRedisPrefix = "graduation-scanner:pairs:"

// redisEntry is the JSON value stored per key.
type redisEntry struct {
	Pairs     []domain.Pair `json:"pairs"`
	FetchedAt int64         `json:"fetched_at"` // Unix milliseconds
}

// Redis is a Store shared between scanner processes.
// Redis errors are logged and treated as a miss or a dropped write.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

var _ Store = (*Redis)(nil)

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Prefix string
	TTL    time.Duration
	Now    func() time.Time
	Logger zerolog.Logger
}

// NewRedis creates a Redis-backed store.
func NewRedis(client redis.Cmdable, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Redis{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

// Get reads key and checks the stored fetch time against the TTL.
func (r *Redis) Get(ctx context.Context, key string) ([]domain.Pair, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("key", key).Msg("redis cache get failed")
		}
		return nil, false
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis cache entry corrupt")
		return nil, false
	}

	if r.now().Sub(time.UnixMilli(e.FetchedAt)) >= r.ttl {
		return nil, false
	}

	return clonePairs(e.Pairs), true
}

// Set writes pairs with an expiry equal to the TTL.
func (r *Redis) Set(ctx context.Context, key string, pairs []domain.Pair) {
	raw, err := encodeEntry(pairs, r.now())
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis cache encode failed")
		return
	}

	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis cache set failed")
	}
}

func encodeEntry(pairs []domain.Pair, fetchedAt time.Time) ([]byte, error) {
	return json.Marshal(redisEntry{
		Pairs:     clonePairs(pairs),
		FetchedAt: fetchedAt.UnixMilli(),
	})
}
