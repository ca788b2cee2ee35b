package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-scanner/internal/domain"
)

const epsilon = 1e-9

// neutralPair fires no signal group: 5m volume matches the hourly pace,
// liquidity and market cap sit between bands, buys equal sells.
func neutralPair() domain.Pair {
	return domain.Pair{
		PairAddress: "Pool111",
		BaseToken:   domain.Token{Address: "Mint111"},
		Volume:      domain.WindowValues{M5: 1000, H1: 12000},
		Liquidity:   domain.Liquidity{USD: 10000},
		Txns:        domain.WindowTxns{M5: domain.TxnCount{Buys: 10, Sells: 10}},
		MarketCap:   80000,
	}
}

func findSignal(signals []domain.SignalContribution, name string) (domain.SignalContribution, bool) {
	for _, s := range signals {
		if s.Signal == name {
			return s, true
		}
	}
	return domain.SignalContribution{}, false
}

func TestScore_NeutralIsBase(t *testing.T) {
	got := Score(neutralPair(), domain.TokenMetrics{})
	assert.InDelta(t, BaseScore, got, epsilon)
	assert.Empty(t, Explain(neutralPair(), domain.TokenMetrics{}))
}

func TestScore_SignalGroups(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.Pair, *domain.TokenMetrics)
		signal    string
		wantDelta float64
	}{
		{"volume 3x pace", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Volume.M5 = 3000 }, SignalVolumeMomentum, 1.5},
		{"volume 1.8x pace", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Volume.M5 = 1800 }, SignalVolumeMomentum, 1.0},
		{"volume 0.4x pace", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Volume.M5 = 400 }, SignalVolumeMomentum, -1.0},
		{"liquidity 60k", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Liquidity.USD = 60000 }, SignalLiquidity, 1.0},
		{"liquidity 25k", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Liquidity.USD = 25000 }, SignalLiquidity, 0.5},
		{"liquidity 4k", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Liquidity.USD = 4000 }, SignalLiquidity, -1.0},
		{"ratio 3", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Txns.M5 = domain.TxnCount{Buys: 30, Sells: 10} }, SignalBuySellRatio, 1.0},
		{"ratio 1.8", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Txns.M5 = domain.TxnCount{Buys: 18, Sells: 10} }, SignalBuySellRatio, 0.5},
		{"ratio 0.2", func(p *domain.Pair, _ *domain.TokenMetrics) { p.Txns.M5 = domain.TxnCount{Buys: 2, Sells: 10} }, SignalBuySellRatio, -1.5},
		{"price +25%", func(p *domain.Pair, _ *domain.TokenMetrics) { p.PriceChange.M5 = 25 }, SignalPriceMomentum, 1.0},
		{"price +15%", func(p *domain.Pair, _ *domain.TokenMetrics) { p.PriceChange.M5 = 15 }, SignalPriceMomentum, 0.5},
		{"price -30%", func(p *domain.Pair, _ *domain.TokenMetrics) { p.PriceChange.M5 = -30 }, SignalPriceMomentum, -1.0},
		{"mcap 500k", func(p *domain.Pair, _ *domain.TokenMetrics) { p.MarketCap = 500000 }, SignalMarketCap, 0.5},
		{"mcap 20M", func(p *domain.Pair, _ *domain.TokenMetrics) { p.MarketCap = 20000000 }, SignalMarketCap, -0.5},
		{"holders 250", func(_ *domain.Pair, m *domain.TokenMetrics) { m.Holders = domain.Known(250) }, SignalHolders, 1.0},
		{"holders 150", func(_ *domain.Pair, m *domain.TokenMetrics) { m.Holders = domain.Known(150) }, SignalHolders, 0.5},
		{"holders 10", func(_ *domain.Pair, m *domain.TokenMetrics) { m.Holders = domain.Known(10) }, SignalHolders, -0.5},
		{"concentration 10%", func(_ *domain.Pair, m *domain.TokenMetrics) { m.TopHolderConcentration = domain.Known(10.0) }, SignalConcentration, 1.0},
		{"concentration 30%", func(_ *domain.Pair, m *domain.TokenMetrics) { m.TopHolderConcentration = domain.Known(30.0) }, SignalConcentration, 0.5},
		{"concentration 65%", func(_ *domain.Pair, m *domain.TokenMetrics) { m.TopHolderConcentration = domain.Known(65.0) }, SignalConcentration, -1.0},
		{"concentration 50%", func(_ *domain.Pair, m *domain.TokenMetrics) { m.TopHolderConcentration = domain.Known(50.0) }, SignalConcentration, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := neutralPair()
			var metrics domain.TokenMetrics
			tt.mutate(&pair, &metrics)

			signals := Explain(pair, metrics)
			require.Len(t, signals, 1, "signals: %v", signals)
			assert.Equal(t, tt.signal, signals[0].Signal)
			assert.InDelta(t, tt.wantDelta, signals[0].Delta, epsilon)
			assert.NotEmpty(t, signals[0].Reason)
			assert.InDelta(t, BaseScore+tt.wantDelta, Score(pair, metrics), epsilon)
		})
	}
}

func TestScore_VolumeMomentumExample(t *testing.T) {
	pair := neutralPair()
	pair.Volume = domain.WindowValues{M5: 3000, H1: 12000}

	s, ok := findSignal(Explain(pair, domain.TokenMetrics{}), SignalVolumeMomentum)
	require.True(t, ok)
	assert.InDelta(t, 1.5, s.Delta, epsilon)
}

func TestScore_UnknownEnrichmentIsNeutral(t *testing.T) {
	signals := Explain(neutralPair(), domain.TokenMetrics{})

	_, holdersFired := findSignal(signals, SignalHolders)
	_, concFired := findSignal(signals, SignalConcentration)
	assert.False(t, holdersFired)
	assert.False(t, concFired)
}

func TestBuySellRatio(t *testing.T) {
	tests := []struct {
		name string
		txns domain.TxnCount
		want float64
	}{
		{"balanced", domain.TxnCount{Buys: 5, Sells: 5}, 1},
		{"no sells with buys", domain.TxnCount{Buys: 5}, 2},
		{"no activity", domain.TxnCount{}, 1},
		{"sells only", domain.TxnCount{Sells: 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuySellRatio(tt.txns); math.Abs(got-tt.want) > epsilon {
				t.Errorf("BuySellRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_ClampedHigh(t *testing.T) {
	pair := domain.Pair{
		Volume:      domain.WindowValues{M5: 10000, H1: 12000},
		Liquidity:   domain.Liquidity{USD: 100000},
		Txns:        domain.WindowTxns{M5: domain.TxnCount{Buys: 50, Sells: 5}},
		PriceChange: domain.WindowValues{M5: 40},
		MarketCap:   1000000,
	}
	metrics := domain.TokenMetrics{
		Holders:                domain.Known(500),
		TopHolderConcentration: domain.Known(5.0),
	}

	// 5 + 1.5 + 1 + 1 + 1 + 0.5 + 1 + 1 = 12
	assert.Equal(t, MaxScore, Score(pair, metrics))
}

func TestScore_ClampedLow(t *testing.T) {
	pair := domain.Pair{
		Volume:      domain.WindowValues{M5: 10, H1: 12000},
		Liquidity:   domain.Liquidity{USD: 1000},
		Txns:        domain.WindowTxns{M5: domain.TxnCount{Buys: 1, Sells: 50}},
		PriceChange: domain.WindowValues{M5: -50},
		MarketCap:   50000000,
	}
	metrics := domain.TokenMetrics{
		Holders:                domain.Known(5),
		TopHolderConcentration: domain.Known(90.0),
	}

	// 5 - 1 - 1 - 1.5 - 1 - 0.5 - 0.5 - 1 = -1.5
	assert.Equal(t, MinScore, Score(pair, metrics))
}

func TestScore_AlwaysBounded(t *testing.T) {
	volumes := []float64{0, 100, 1000, 5000}
	liquidities := []float64{0, 3000, 30000, 90000}
	changes := []float64{-80, 0, 15, 60}
	holderCounts := []int{0, 20, 150, 400}

	for _, v := range volumes {
		for _, l := range liquidities {
			for _, c := range changes {
				for _, h := range holderCounts {
					pair := domain.Pair{
						Volume:      domain.WindowValues{M5: v, H1: 12000},
						Liquidity:   domain.Liquidity{USD: l},
						PriceChange: domain.WindowValues{M5: c},
					}
					metrics := domain.TokenMetrics{Holders: domain.Known(h)}

					score := Score(pair, metrics)
					if score < MinScore || score > MaxScore {
						t.Fatalf("score %v out of bounds for v=%v l=%v c=%v h=%d", score, v, l, c, h)
					}
				}
			}
		}
	}
}

func TestScore_Pure(t *testing.T) {
	pair := neutralPair()
	pair.Volume.M5 = 2500
	metrics := domain.TokenMetrics{Holders: domain.Known(120), TopHolderConcentration: domain.Known(40.0)}

	first := Score(pair, metrics)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(pair, metrics))
	}
}
