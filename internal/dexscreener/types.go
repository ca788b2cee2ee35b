package dexscreener

import (
	"time"

	"github.com/shopspring/decimal"

	"graduation-scanner/internal/domain"
)

// pairsResponse is the envelope of every pairs endpoint.
type pairsResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []wirePair `json:"pairs"`
}

// wirePair is a pair as DexScreener serves it. Every numeric block is
// optional on the wire; missing values decode to zero.
type wirePair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	URL           string      `json:"url"`
	PairAddress   string      `json:"pairAddress"`
	BaseToken     wireToken   `json:"baseToken"`
	QuoteToken    wireToken   `json:"quoteToken"`
	PriceNative   string      `json:"priceNative"`
	PriceUSD      string      `json:"priceUsd"`
	Txns          *wireTxns   `json:"txns"`
	Volume        *wireWindow `json:"volume"`
	PriceChange   *wireWindow `json:"priceChange"`
	Liquidity     *wireLiq    `json:"liquidity"`
	FDV           float64     `json:"fdv"`
	MarketCap     float64     `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"` // Unix milliseconds
	Info          *wireInfo   `json:"info"`
}

type wireToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type wireTxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type wireTxns struct {
	M5  wireTxnCount `json:"m5"`
	H1  wireTxnCount `json:"h1"`
	H6  wireTxnCount `json:"h6"`
	H24 wireTxnCount `json:"h24"`
}

type wireWindow struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type wireLiq struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

type wireInfo struct {
	ImageURL string `json:"imageUrl"`
}

// toDomain normalizes a wire pair. Unparseable prices become zero.
func (w wirePair) toDomain() domain.Pair {
	p := domain.Pair{
		ChainID:     w.ChainID,
		ExchangeID:  w.DexID,
		URL:         w.URL,
		PairAddress: w.PairAddress,
		BaseToken:   domain.Token(w.BaseToken),
		QuoteToken:  domain.Token(w.QuoteToken),
		PriceNative: parsePrice(w.PriceNative),
		PriceUSD:    parsePrice(w.PriceUSD),
		FDV:         w.FDV,
		MarketCap:   w.MarketCap,
	}

	if w.Txns != nil {
		p.Txns = domain.WindowTxns{
			M5:  domain.TxnCount(w.Txns.M5),
			H1:  domain.TxnCount(w.Txns.H1),
			H6:  domain.TxnCount(w.Txns.H6),
			H24: domain.TxnCount(w.Txns.H24),
		}
	}
	if w.Volume != nil {
		p.Volume = domain.WindowValues(*w.Volume)
	}
	if w.PriceChange != nil {
		p.PriceChange = domain.WindowValues(*w.PriceChange)
	}
	if w.Liquidity != nil {
		p.Liquidity = domain.Liquidity(*w.Liquidity)
	}
	if w.PairCreatedAt > 0 {
		p.CreatedAt = time.UnixMilli(w.PairCreatedAt).UTC()
	}
	if w.Info != nil {
		p.ImageURL = w.Info.ImageURL
	}

	return p
}

func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
