package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used for holder lookups.
type RPCClient interface {
	// GetTokenAccounts lists token accounts of a mint, one page at a time (Helius DAS).
	GetTokenAccounts(ctx context.Context, mint string, page, limit int) (*TokenAccountsPage, error)

	// GetTokenLargestAccounts returns the largest token accounts of a mint, largest first.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAmount, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetAccountInfo retrieves account info by public key. Returns nil if not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}
