package filter

import (
	"fmt"
	"strconv"

	"graduation-scanner/internal/domain"
)

// MaxTopHolderConcentration is the percent of supply the top holders may own
// before a candidate fails. It applies to every preset.
const MaxTopHolderConcentration = 50.0

// Result is the outcome of evaluating one candidate against a filter.
// Passes is true iff Failures is empty.
type Result struct {
	Passes   bool     `json:"passes"`
	Failures []string `json:"failures"`
}

// Evaluate checks a pair and its metrics against the filter thresholds.
// Checks run in a fixed order and every violation appends one failure.
// Unknown holder data (zero holders) never fails the holder check.
func Evaluate(pair domain.Pair, m domain.TokenMetrics, f domain.GraduationFilter) Result {
	failures := make([]string, 0, 5)

	// 1. Liquidity floor
	if pair.Liquidity.USD < f.MinLiquidity {
		failures = append(failures, fmt.Sprintf("Liquidity $%s < $%s",
			whole(pair.Liquidity.USD), threshold(f.MinLiquidity)))
	}

	// 2. 5m volume floor
	if pair.Volume.M5 < f.MinVolume5m {
		failures = append(failures, fmt.Sprintf("5m volume $%s < $%s",
			whole(pair.Volume.M5), threshold(f.MinVolume5m)))
	}

	// 3. Entry window
	ageMinutes := m.TokenAgeHours * 60
	if ageMinutes > f.MaxAgeMinutes {
		failures = append(failures, fmt.Sprintf("Age %sm > %sm",
			whole(ageMinutes), threshold(f.MaxAgeMinutes)))
	}

	// 4. Holder floor, only when the count is known
	if holders := m.Holders.Value; holders > 0 && holders < f.MinHolders {
		failures = append(failures, fmt.Sprintf("Holders %d < %d", holders, f.MinHolders))
	}

	// 5. Whale concentration ceiling
	if c := m.TopHolderConcentration.Value; c > MaxTopHolderConcentration {
		failures = append(failures, fmt.Sprintf("Top 10 holders own %.1f%% (high concentration)", c))
	}

	return Result{
		Passes:   len(failures) == 0,
		Failures: failures,
	}
}

func whole(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// threshold renders a configured limit in its shortest form (12000, 7.5).
func threshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
