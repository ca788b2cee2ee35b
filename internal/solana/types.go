package solana

// TokenAmount is a raw token amount as returned by token RPC methods.
// Amount is the integer base-unit value as a decimal string.
type TokenAmount struct {
	Address  string `json:"address,omitempty"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

// TokenAccount is one holder account from getTokenAccounts.
type TokenAccount struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
}

// TokenAccountsPage is one page of getTokenAccounts results.
type TokenAccountsPage struct {
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	Accounts []TokenAccount `json:"token_accounts"`
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
