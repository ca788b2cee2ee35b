package domain

import "time"

// Graduation describes the listing event that made a token discoverable.
type Graduation struct {
	Mint             string    `json:"mint"`
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	GraduatedAt      time.Time `json:"graduated_at"`
	PairAddress      string    `json:"pair_address"`
	InitialLiquidity float64   `json:"initial_liquidity"`
	InitialMarketCap float64   `json:"initial_market_cap"`
	ImageURL         string    `json:"image_url,omitempty"`
}

// NewGraduation builds graduation info from the pair it was observed on.
func NewGraduation(p Pair) Graduation {
	return Graduation{
		Mint:             p.Mint(),
		Symbol:           p.BaseToken.Symbol,
		Name:             p.BaseToken.Name,
		GraduatedAt:      p.CreatedAt,
		PairAddress:      p.PairAddress,
		InitialLiquidity: p.Liquidity.USD,
		InitialMarketCap: p.MarketCap,
		ImageURL:         p.ImageURL,
	}
}

// SignalContribution is one scoring group's effect on the base score.
type SignalContribution struct {
	Signal string  `json:"signal"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// Candidate is a scored, filter-evaluated wrapper around one newly observed pair.
// Passes is true iff Failures is empty.
type Candidate struct {
	CandidateID string               `json:"candidate_id"`
	Graduation  Graduation           `json:"graduation"`
	Pair        Pair                 `json:"pair"`
	Metrics     TokenMetrics         `json:"metrics"`
	Score       float64              `json:"score"`
	Passes      bool                 `json:"passes_filter"`
	Failures    []string             `json:"filter_failures"`
	Signals     []SignalContribution `json:"signals,omitempty"`
	ScannedAt   time.Time            `json:"scanned_at"`
}
