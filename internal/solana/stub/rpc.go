package stub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"graduation-scanner/internal/solana"
)

// ErrNotFound is returned when a mint has no stubbed data.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
// Err fields, when set for a mint, fail that lookup.
type RPCClient struct {
	mu sync.RWMutex

	Holders  map[string][]solana.TokenAccount
	Largest  map[string][]solana.TokenAmount
	Supplies map[string]*solana.TokenAmount
	Accounts map[string]*solana.AccountInfo

	HoldersErr  map[string]error
	LargestErr  map[string]error
	SupplyErr   map[string]error
	AccountsErr map[string]error

	Calls atomic.Int64
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Holders:     make(map[string][]solana.TokenAccount),
		Largest:     make(map[string][]solana.TokenAmount),
		Supplies:    make(map[string]*solana.TokenAmount),
		Accounts:    make(map[string]*solana.AccountInfo),
		HoldersErr:  make(map[string]error),
		LargestErr:  make(map[string]error),
		SupplyErr:   make(map[string]error),
		AccountsErr: make(map[string]error),
	}
}

// GetTokenAccounts pages through the stubbed holder accounts of a mint.
func (c *RPCClient) GetTokenAccounts(_ context.Context, mint string, page, limit int) (*solana.TokenAccountsPage, error) {
	c.Calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.HoldersErr[mint]; err != nil {
		return nil, err
	}
	accounts, ok := c.Holders[mint]
	if !ok {
		return nil, ErrNotFound
	}

	result := &solana.TokenAccountsPage{Total: len(accounts), Page: page, Limit: limit}
	start := (page - 1) * limit
	if start < 0 || start >= len(accounts) {
		return result, nil
	}
	end := start + limit
	if end > len(accounts) {
		end = len(accounts)
	}
	result.Accounts = accounts[start:end]
	return result, nil
}

// GetTokenLargestAccounts returns the stubbed largest accounts of a mint.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAmount, error) {
	c.Calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.LargestErr[mint]; err != nil {
		return nil, err
	}
	accounts, ok := c.Largest[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return accounts, nil
}

// GetTokenSupply returns the stubbed supply of a mint.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	c.Calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.SupplyErr[mint]; err != nil {
		return nil, err
	}
	supply, ok := c.Supplies[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return supply, nil
}

// GetAccountInfo returns the stubbed account, or nil when none is set.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.Calls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.AccountsErr[pubkey]; err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}
