package metrics

import (
	"time"

	"graduation-scanner/internal/domain"
)

// Project derives the per-token metrics view from a pair observed at now.
// Holder and authority fields stay unknown and deployer lineage stays empty
// until enrichment is merged with TokenMetrics.WithHolders.
func Project(pair domain.Pair, now time.Time) domain.TokenMetrics {
	ageHours := computeAgeHours(pair.CreatedAt, now)

	return domain.TokenMetrics{
		Mint:           pair.Mint(),
		Symbol:         pair.BaseToken.Symbol,
		Name:           pair.BaseToken.Name,
		Price:          pair.PriceUSD.InexactFloat64(),
		PriceChange24h: pair.PriceChange.H24,
		Volume24h:      pair.Volume.H24,
		VolumeChange:   computeVolumeChange(pair.Volume),
		Liquidity:      pair.Liquidity.USD,
		TokenAgeHours:  ageHours,
		LPAgeHours:     ageHours,
	}
}

// computeAgeHours returns hours elapsed since createdAt.
// A pair without a creation time reports age 0 so it never fails an age gate.
func computeAgeHours(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	return now.Sub(createdAt).Hours()
}

// computeVolumeChange compares the hourly run-rate against the 24h volume:
// ((h1*24)/h24 - 1) * 100, or 0 when there is no 24h volume.
func computeVolumeChange(v domain.WindowValues) float64 {
	if v.H24 == 0 {
		return 0
	}
	return ((v.H1*24)/v.H24 - 1) * 100
}
