// Package dexscreener is the pair feed client for the DexScreener HTTP API.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"graduation-scanner/internal/breaker"
	"graduation-scanner/internal/cache"
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.dexscreener.com"
	DefaultChain       = "solana"
	DefaultExchange    = "raydium"
	DefaultUserAgent   = "graduation-scanner/1.0"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRatePerSec  = 5.0
	DefaultBurst       = 5
)

// Operation names, used as cache key prefixes and metric labels.
const (
	OpLatestPairs = "latest_pairs"
	OpPairForMint = "pair_for_mint"
	OpSearchPairs = "search_pairs"
)

// ErrUnexpectedStatus is wrapped by StatusError for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Is matches ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// retryable reports whether the upstream may succeed on a later attempt.
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client fetches and caches pairs from DexScreener.
// Build one per process and share it; it owns the pair cache.
type Client struct {
	baseURL     string
	chain       string
	exchange    string
	userAgent   string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker
	breakerCfg  breaker.Settings
	cache       *cache.Coalescer
	store       cache.Store
	logger      zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTarget restricts results to one chain and exchange.
func WithTarget(chain, exchange string) ClientOption {
	return func(c *Client) {
		c.chain = chain
		c.exchange = exchange
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRetry sets retry attempts and the initial and maximum backoff delay.
func WithRetry(maxRetries int, delay, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
		c.maxDelay = maxDelay
	}
}

// WithRateLimit paces requests. A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		limit := rate.Inf
		if perSecond > 0 {
			limit = rate.Limit(perSecond)
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithBreaker sets circuit breaker settings.
func WithBreaker(s breaker.Settings) ClientOption {
	return func(c *Client) {
		c.breakerCfg = s
	}
}

// WithStore sets the pair cache backend. The default is an in-memory
// store with a 30s TTL.
func WithStore(s cache.Store) ClientOption {
	return func(c *Client) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a DexScreener client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		chain:       DefaultChain,
		exchange:    DefaultExchange,
		userAgent:   DefaultUserAgent,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRatePerSec), DefaultBurst),
		breakerCfg:  breaker.DefaultSettings(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		c.store = cache.NewMemory(cache.DefaultTTL)
	}
	c.cache = cache.NewCoalescer(c.store)

	if c.breakerCfg.IsSuccessful == nil {
		c.breakerCfg.IsSuccessful = countsAgainstUpstream
	}
	c.cb = breaker.New("dexscreener", c.breakerCfg, c.logger)

	return c
}

// countsAgainstUpstream treats client errors and caller cancellation as
// successes for the breaker.
func countsAgainstUpstream(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.retryable()
	}
	return false
}

// FetchLatestPairs returns up to limit latest pairs on chain, restricted to exchange.
func (c *Client) FetchLatestPairs(ctx context.Context, chain, exchange string, limit int) ([]domain.Pair, error) {
	key := cache.Key(OpLatestPairs, chain, exchange, strconv.Itoa(limit))
	path := fmt.Sprintf("/latest/dex/pairs/%s?limit=%d", url.PathEscape(chain), limit)

	return c.fetch(ctx, OpLatestPairs, key, path, limit, func(p domain.Pair) bool {
		return p.ExchangeID == exchange
	})
}

// FetchPairForMint returns the most liquid pair for mint on the configured
// chain and exchange. Ties keep the feed's order. Returns nil when none match.
func (c *Client) FetchPairForMint(ctx context.Context, mint string) (*domain.Pair, error) {
	key := cache.Key(OpPairForMint, c.chain, c.exchange, mint)
	path := "/latest/dex/tokens/" + url.PathEscape(mint)

	pairs, err := c.fetch(ctx, OpPairForMint, key, path, 0, c.onTarget)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Liquidity.USD > pairs[j].Liquidity.USD
	})
	best := pairs[0]
	return &best, nil
}

// SearchPairs returns pairs matching query on the configured chain and exchange.
func (c *Client) SearchPairs(ctx context.Context, query string) ([]domain.Pair, error) {
	key := cache.Key(OpSearchPairs, c.chain, c.exchange, query)
	path := "/latest/dex/search?q=" + url.QueryEscape(query)

	return c.fetch(ctx, OpSearchPairs, key, path, 0, c.onTarget)
}

func (c *Client) onTarget(p domain.Pair) bool {
	return p.ChainID == c.chain && p.ExchangeID == c.exchange
}

// fetch serves op from the cache or loads, filters and caches it.
// At most limit matching pairs are kept in feed order; limit <= 0 keeps all.
func (c *Client) fetch(ctx context.Context, op, key, path string, limit int, keep func(domain.Pair) bool) ([]domain.Pair, error) {
	pairs, hit, err := c.cache.Fetch(ctx, key, func(ctx context.Context) ([]domain.Pair, error) {
		all, err := c.get(ctx, path)
		if err != nil {
			return nil, err
		}
		kept := make([]domain.Pair, 0, len(all))
		for _, p := range all {
			if limit > 0 && len(kept) == limit {
				break
			}
			if keep(p) {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})

	switch {
	case err != nil:
		observability.RecordFeedRequest(op, "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	case hit:
		observability.RecordFeedRequest(op, "cached")
	default:
		observability.RecordFeedRequest(op, "ok")
	}

	c.logger.Debug().
		Str("op", op).
		Str("key", key).
		Bool("cached", hit).
		Int("pairs", len(pairs)).
		Msg("pair feed fetch")

	return pairs, nil
}

// get performs one logical request through the breaker.
func (c *Client) get(ctx context.Context, path string) ([]domain.Pair, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.getWithRetry(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.Pair), nil
}

// getWithRetry performs a GET with retries and exponential backoff on
// transport errors, 429 and 5xx.
func (c *Client) getWithRetry(ctx context.Context, path string) ([]domain.Pair, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug().Err(lastErr).Str("path", path).Int("attempt", attempt).Msg("retrying pair feed request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pairs, err := c.do(ctx, path)
		if err == nil {
			return pairs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, path string) ([]domain.Pair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var decoded pairsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	pairs := make([]domain.Pair, 0, len(decoded.Pairs))
	for _, w := range decoded.Pairs {
		pairs = append(pairs, w.toDomain())
	}
	return pairs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
