package scoring

import (
	"fmt"

	"graduation-scanner/internal/domain"
)

// BaseScore is the neutral starting score before any signal applies.
const BaseScore = 5.0

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Signal group names.
const (
	SignalVolumeMomentum = "volume_momentum"
	SignalLiquidity      = "liquidity"
	SignalBuySellRatio   = "buy_sell_ratio"
	SignalPriceMomentum  = "price_momentum"
	SignalMarketCap      = "market_cap"
	SignalHolders        = "holders"
	SignalConcentration  = "concentration"
)

// Score returns the bounded confidence score for a pair and its metrics.
// Each signal group applies at most one branch; the sum is clamped to [0,10].
func Score(pair domain.Pair, m domain.TokenMetrics) float64 {
	score := BaseScore
	for _, s := range Explain(pair, m) {
		score += s.Delta
	}
	return clamp(score)
}

// Explain returns the contribution of every signal group that fired, in
// evaluation order. BaseScore plus the deltas is the unclamped score.
func Explain(pair domain.Pair, m domain.TokenMetrics) []domain.SignalContribution {
	signals := make([]domain.SignalContribution, 0, 7)
	add := func(s domain.SignalContribution, ok bool) {
		if ok {
			signals = append(signals, s)
		}
	}

	add(volumeMomentum(pair))
	add(liquidity(pair))
	add(buySellRatio(pair))
	add(priceMomentum(pair))
	add(marketCap(pair))
	add(holders(m))
	add(concentration(m))

	return signals
}

// volumeMomentum compares 5m volume with the 5m slice of the hourly volume.
func volumeMomentum(pair domain.Pair) (domain.SignalContribution, bool) {
	vol5m := pair.Volume.M5
	baseline := pair.Volume.H1 / 12

	switch {
	case vol5m > baseline*2:
		return contribution(SignalVolumeMomentum, 1.5, "5m volume above 2x hourly pace"), true
	case vol5m > baseline*1.5:
		return contribution(SignalVolumeMomentum, 1.0, "5m volume above 1.5x hourly pace"), true
	case vol5m < baseline*0.5:
		return contribution(SignalVolumeMomentum, -1.0, "5m volume below half hourly pace"), true
	}
	return domain.SignalContribution{}, false
}

func liquidity(pair domain.Pair) (domain.SignalContribution, bool) {
	liq := pair.Liquidity.USD

	switch {
	case liq > 50000:
		return contribution(SignalLiquidity, 1.0, fmt.Sprintf("liquidity $%.0f above $50000", liq)), true
	case liq > 20000:
		return contribution(SignalLiquidity, 0.5, fmt.Sprintf("liquidity $%.0f above $20000", liq)), true
	case liq < 5000:
		return contribution(SignalLiquidity, -1.0, fmt.Sprintf("liquidity $%.0f below $5000", liq)), true
	}
	return domain.SignalContribution{}, false
}

// buySellRatio uses 5m transaction counts. With no sells the ratio is 2 when
// there were buys and 1 otherwise.
func buySellRatio(pair domain.Pair) (domain.SignalContribution, bool) {
	ratio := BuySellRatio(pair.Txns.M5)

	switch {
	case ratio > 2:
		return contribution(SignalBuySellRatio, 1.0, fmt.Sprintf("buy/sell ratio %.2f above 2", ratio)), true
	case ratio > 1.5:
		return contribution(SignalBuySellRatio, 0.5, fmt.Sprintf("buy/sell ratio %.2f above 1.5", ratio)), true
	case ratio < 0.5:
		return contribution(SignalBuySellRatio, -1.5, fmt.Sprintf("buy/sell ratio %.2f below 0.5", ratio)), true
	}
	return domain.SignalContribution{}, false
}

// BuySellRatio returns buys/sells for one window.
func BuySellRatio(t domain.TxnCount) float64 {
	if t.Sells > 0 {
		return float64(t.Buys) / float64(t.Sells)
	}
	if t.Buys > 0 {
		return 2
	}
	return 1
}

func priceMomentum(pair domain.Pair) (domain.SignalContribution, bool) {
	change := pair.PriceChange.M5

	switch {
	case change > 20:
		return contribution(SignalPriceMomentum, 1.0, fmt.Sprintf("5m price %+.1f%%", change)), true
	case change > 10:
		return contribution(SignalPriceMomentum, 0.5, fmt.Sprintf("5m price %+.1f%%", change)), true
	case change < -20:
		return contribution(SignalPriceMomentum, -1.0, fmt.Sprintf("5m price %+.1f%%", change)), true
	}
	return domain.SignalContribution{}, false
}

func marketCap(pair domain.Pair) (domain.SignalContribution, bool) {
	mcap := pair.MarketCap

	switch {
	case mcap > 100000 && mcap < 5000000:
		return contribution(SignalMarketCap, 0.5, "market cap between $100k and $5M"), true
	case mcap > 10000000:
		return contribution(SignalMarketCap, -0.5, "market cap above $10M"), true
	}
	return domain.SignalContribution{}, false
}

// holders treats a zero count as unknown.
func holders(m domain.TokenMetrics) (domain.SignalContribution, bool) {
	h := m.Holders.Value

	switch {
	case h > 200:
		return contribution(SignalHolders, 1.0, fmt.Sprintf("%d holders", h)), true
	case h > 100:
		return contribution(SignalHolders, 0.5, fmt.Sprintf("%d holders", h)), true
	case h < 30 && h > 0:
		return contribution(SignalHolders, -0.5, fmt.Sprintf("only %d holders", h)), true
	}
	return domain.SignalContribution{}, false
}

// concentration only scores known, non-zero values. Lower is better.
func concentration(m domain.TokenMetrics) (domain.SignalContribution, bool) {
	c := m.TopHolderConcentration.Value
	if c <= 0 {
		return domain.SignalContribution{}, false
	}

	reason := fmt.Sprintf("top holders own %.1f%%", c)
	switch {
	case c < 20:
		return contribution(SignalConcentration, 1.0, reason), true
	case c < 35:
		return contribution(SignalConcentration, 0.5, reason), true
	case c > 60:
		return contribution(SignalConcentration, -1.0, reason), true
	case c > 45:
		return contribution(SignalConcentration, -0.5, reason), true
	}
	return domain.SignalContribution{}, false
}

func contribution(signal string, delta float64, reason string) domain.SignalContribution {
	return domain.SignalContribution{Signal: signal, Delta: delta, Reason: reason}
}

func clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
