package holders

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"graduation-scanner/internal/breaker"
	"graduation-scanner/internal/solana"
)

// Default lookup limits.
const (
	DefaultPageLimit      = 1000
	DefaultMaxPages       = 10
	DefaultRequestsPerSec = 10
	DefaultBurst          = 5
)

// Options configures a Client.
type Options struct {
	PageLimit      int     // accounts per getTokenAccounts page
	MaxPages       int     // pages read before the count is reported as-is
	RequestsPerSec float64 // RPC pacing; 0 disables
	Burst          int
	Breaker        breaker.Settings
	Logger         zerolog.Logger
}

// DefaultOptions returns default client options.
func DefaultOptions() Options {
	return Options{
		PageLimit:      DefaultPageLimit,
		MaxPages:       DefaultMaxPages,
		RequestsPerSec: DefaultRequestsPerSec,
		Burst:          DefaultBurst,
		Breaker:        breaker.DefaultSettings(),
		Logger:         zerolog.Nop(),
	}
}

// Client looks up holder statistics for SPL mints over Solana JSON-RPC.
type Client struct {
	rpc     solana.RPCClient
	opts    Options
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
}

// NewClient creates a holder lookup client.
func NewClient(rpc solana.RPCClient, opts Options) *Client {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}

	if opts.Breaker.IsSuccessful == nil {
		opts.Breaker.IsSuccessful = healthyRPC
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}

	return &Client{
		rpc:     rpc,
		opts:    opts,
		limiter: rate.NewLimiter(limit, opts.Burst),
		cb:      breaker.New("holders", opts.Breaker, opts.Logger),
	}
}

// do paces and circuit-breaks one RPC round trip.
func (c *Client) do(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.cb.Execute(func() (interface{}, error) {
		v, err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, &abandonedError{err: err}
		}
		return v, err
	})
}

// abandonedError marks a call that failed because its caller gave up.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }
func (e *abandonedError) Unwrap() error { return e.err }

// healthyRPC reports whether err leaves the endpoint's health untouched:
// node errors about one mint, non-retryable HTTP statuses and calls
// abandoned by their caller do not count toward opening the breaker.
func healthyRPC(err error) bool {
	if err == nil {
		return true
	}
	var abandoned *abandonedError
	if errors.As(err, &abandoned) {
		return true
	}
	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		return true
	}
	var se *solana.StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}

// HolderCount returns the number of token accounts with a non-zero balance.
// Counting stops after MaxPages pages.
func (c *Client) HolderCount(ctx context.Context, mint string) (int, error) {
	if err := solana.ValidatePublicKey(mint); err != nil {
		return 0, err
	}

	count := 0
	for page := 1; page <= c.opts.MaxPages; page++ {
		res, err := c.do(ctx, func() (interface{}, error) {
			return c.rpc.GetTokenAccounts(ctx, mint, page, c.opts.PageLimit)
		})
		if err != nil {
			return 0, fmt.Errorf("get token accounts %s page %d: %w", mint, page, err)
		}
		result := res.(*solana.TokenAccountsPage)

		for _, acc := range result.Accounts {
			if acc.Amount > 0 {
				count++
			}
		}

		if len(result.Accounts) < c.opts.PageLimit {
			return count, nil
		}
	}

	c.opts.Logger.Debug().
		Str("mint", mint).
		Int("pages", c.opts.MaxPages).
		Msg("holder count truncated at page cap")
	return count, nil
}

// TopHolderConcentration returns the percent of supply held by the topN
// largest accounts, clamped to [0,100].
func (c *Client) TopHolderConcentration(ctx context.Context, mint string, topN int) (float64, error) {
	if err := solana.ValidatePublicKey(mint); err != nil {
		return 0, err
	}

	res, err := c.do(ctx, func() (interface{}, error) {
		return c.rpc.GetTokenSupply(ctx, mint)
	})
	if err != nil {
		return 0, fmt.Errorf("get token supply %s: %w", mint, err)
	}
	supply, err := decimal.NewFromString(res.(*solana.TokenAmount).Amount)
	if err != nil {
		return 0, fmt.Errorf("parse supply %s: %w", mint, err)
	}
	if !supply.IsPositive() {
		return 0, fmt.Errorf("%s: %w", mint, ErrZeroSupply)
	}

	res, err = c.do(ctx, func() (interface{}, error) {
		return c.rpc.GetTokenLargestAccounts(ctx, mint)
	})
	if err != nil {
		return 0, fmt.Errorf("get largest accounts %s: %w", mint, err)
	}
	largest := res.([]solana.TokenAmount)

	if topN > 0 && len(largest) > topN {
		largest = largest[:topN]
	}

	held := decimal.Zero
	for _, acc := range largest {
		amount, err := decimal.NewFromString(acc.Amount)
		if err != nil {
			return 0, fmt.Errorf("parse amount %s: %w", acc.Address, err)
		}
		held = held.Add(amount)
	}

	pct := held.Div(supply).Mul(decimal.NewFromInt(100)).InexactFloat64()
	switch {
	case pct < 0:
		return 0, nil
	case pct > 100:
		return 100, nil
	}
	return pct, nil
}

// MintAuthorities reports whether the mint still has a mint authority and a
// freeze authority.
func (c *Client) MintAuthorities(ctx context.Context, mint string) (mintAuth, freezeAuth bool, err error) {
	if err := solana.ValidatePublicKey(mint); err != nil {
		return false, false, err
	}

	res, err := c.do(ctx, func() (interface{}, error) {
		return c.rpc.GetAccountInfo(ctx, mint)
	})
	if err != nil {
		return false, false, fmt.Errorf("get account info %s: %w", mint, err)
	}
	info := res.(*solana.AccountInfo)
	if info == nil {
		return false, false, fmt.Errorf("%s: %w", mint, ErrMintNotFound)
	}

	decoded, err := solana.DecodeMint(info.Data)
	if err != nil {
		return false, false, fmt.Errorf("decode mint %s: %w", mint, err)
	}

	return decoded.MintAuthority != "", decoded.FreezeAuthority != "", nil
}
