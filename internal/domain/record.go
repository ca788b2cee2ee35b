package domain

// CandidateRecord is a surfaced candidate as kept in call history.
// Corresponds to candidate_calls table in PostgreSQL.
type CandidateRecord struct {
	CandidateID   string   // PRIMARY KEY, deterministic hash
	Mint          string   // token mint address
	PairAddress   string   // pool address
	Symbol        string   // base token symbol
	Preset        string   // filter preset the scan ran with
	Score         float64  // 0-10
	Passes        bool     // filter outcome
	Failures      []string // ordered filter failures
	LiquidityUSD  float64  // at scan time
	MarketCap     float64  // at scan time
	Volume5m      float64  // at scan time
	Holders       *int     // nullable, enrichment may fail
	Concentration *float64 // nullable, enrichment may fail
	ScannedAt     int64    // Unix timestamp in milliseconds
	CreatedAt     int64    // record creation timestamp (ms)
}

// PairSnapshot is one observation of a surfaced pair.
// Corresponds to pair_snapshots table in ClickHouse.
type PairSnapshot struct {
	PairAddress  string
	Mint         string
	ObservedAtMs int64 // Unix timestamp in milliseconds
	PriceUSD     float64
	LiquidityUSD float64
	Volume5m     float64
	Volume1h     float64
	Volume24h    float64
	Buys5m       int
	Sells5m      int
	MarketCap    float64
	Score        float64
}

// NewCandidateRecord flattens a candidate for call history.
func NewCandidateRecord(c Candidate, preset string) *CandidateRecord {
	rec := &CandidateRecord{
		CandidateID:  c.CandidateID,
		Mint:         c.Pair.Mint(),
		PairAddress:  c.Pair.PairAddress,
		Symbol:       c.Pair.BaseToken.Symbol,
		Preset:       preset,
		Score:        c.Score,
		Passes:       c.Passes,
		Failures:     append([]string{}, c.Failures...),
		LiquidityUSD: c.Pair.Liquidity.USD,
		MarketCap:    c.Pair.MarketCap,
		Volume5m:     c.Pair.Volume.M5,
		ScannedAt:    c.ScannedAt.UnixMilli(),
	}
	if c.Metrics.Holders.Known {
		h := c.Metrics.Holders.Value
		rec.Holders = &h
	}
	if c.Metrics.TopHolderConcentration.Known {
		v := c.Metrics.TopHolderConcentration.Value
		rec.Concentration = &v
	}
	return rec
}

// NewPairSnapshot captures the market state of a candidate's pair.
func NewPairSnapshot(c Candidate) *PairSnapshot {
	return &PairSnapshot{
		PairAddress:  c.Pair.PairAddress,
		Mint:         c.Pair.Mint(),
		ObservedAtMs: c.ScannedAt.UnixMilli(),
		PriceUSD:     c.Pair.PriceUSD.InexactFloat64(),
		LiquidityUSD: c.Pair.Liquidity.USD,
		Volume5m:     c.Pair.Volume.M5,
		Volume1h:     c.Pair.Volume.H1,
		Volume24h:    c.Pair.Volume.H24,
		Buys5m:       c.Pair.Txns.M5.Buys,
		Sells5m:      c.Pair.Txns.M5.Sells,
		MarketCap:    c.Pair.MarketCap,
		Score:        c.Score,
	}
}
