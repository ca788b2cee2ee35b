package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pair is a normalized market snapshot of one pool on one exchange.
// Identity is PairAddress. Pairs are never mutated after normalization.
type Pair struct {
	ChainID     string          `json:"chain_id"`
	ExchangeID  string          `json:"exchange_id"` // dexId on DexScreener
	URL         string          `json:"url,omitempty"`
	PairAddress string          `json:"pair_address"`
	BaseToken   Token           `json:"base_token"`
	QuoteToken  Token           `json:"quote_token"`
	PriceNative decimal.Decimal `json:"price_native"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	Txns        WindowTxns      `json:"txns"`
	Volume      WindowValues    `json:"volume"`
	PriceChange WindowValues    `json:"price_change"`
	Liquidity   Liquidity       `json:"liquidity"`
	FDV         float64         `json:"fdv"`
	MarketCap   float64         `json:"market_cap"`
	CreatedAt   time.Time       `json:"created_at"` // zero when the feed omits it
	ImageURL    string          `json:"image_url,omitempty"`
}

// Mint returns the base token address, which is the token being discovered.
func (p Pair) Mint() string {
	return p.BaseToken.Address
}

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity holds pool depth in USD and in each side's units.
type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// WindowValues holds a metric at the 5m/1h/6h/24h windows.
type WindowValues struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// TxnCount holds buy and sell counts for one window.
type TxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// WindowTxns holds transaction counts at the 5m/1h/6h/24h windows.
type WindowTxns struct {
	M5  TxnCount `json:"m5"`
	H1  TxnCount `json:"h1"`
	H6  TxnCount `json:"h6"`
	H24 TxnCount `json:"h24"`
}
