package domain

// TokenMetrics is the per-token view derived from a Pair and merged with
// holder enrichment. Fields the feed cannot provide stay at their zero value
// (and Enriched fields stay unknown) until enrichment fills them.
type TokenMetrics struct {
	Mint           string  `json:"mint"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"price_change_24h"`
	Volume24h      float64 `json:"volume_24h"`
	VolumeChange   float64 `json:"volume_change"`
	Liquidity      float64 `json:"liquidity"`

	// LiquidityChange and HoldersChange need history the feed does not carry.
	LiquidityChange float64 `json:"liquidity_change"`
	HoldersChange   int     `json:"holders_change"`

	Holders                Enriched[int]     `json:"holders"`
	TopHolderConcentration Enriched[float64] `json:"top_holder_concentration"` // percent of supply
	TokenAgeHours          float64           `json:"token_age_hours"`

	MintAuthority   Enriched[bool] `json:"mint_authority"`
	FreezeAuthority Enriched[bool] `json:"freeze_authority"`
	LPLocked        bool           `json:"lp_locked"`
	LPAgeHours      float64        `json:"lp_age_hours"`

	// Deployer lineage is not traced yet.
	DeployerAddress     string `json:"deployer_address"`
	DeployerPriorTokens int    `json:"deployer_prior_tokens"`
	DeployerRugCount    int    `json:"deployer_rug_count"`
}

// HolderStats is the result of one enrichment pass for a mint.
type HolderStats struct {
	Holders         Enriched[int]
	Concentration   Enriched[float64]
	MintAuthority   Enriched[bool]
	FreezeAuthority Enriched[bool]
}

// WithHolders returns a copy of m with every known field of s merged in.
// Unknown fields of s leave m untouched.
func (m TokenMetrics) WithHolders(s HolderStats) TokenMetrics {
	if s.Holders.Known {
		m.Holders = s.Holders
	}
	if s.Concentration.Known {
		m.TopHolderConcentration = s.Concentration
	}
	if s.MintAuthority.Known {
		m.MintAuthority = s.MintAuthority
	}
	if s.FreezeAuthority.Known {
		m.FreezeAuthority = s.FreezeAuthority
	}
	return m
}
