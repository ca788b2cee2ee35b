package domain

import (
	"sort"
	"strings"
)

// GraduationFilter holds the numeric gates a candidate must clear to pass.
type GraduationFilter struct {
	MinLiquidity           float64 `json:"min_liquidity" yaml:"min_liquidity"`
	MinVolume5m            float64 `json:"min_volume_5m" yaml:"min_volume_5m"`
	MinHolders             int     `json:"min_holders" yaml:"min_holders"`
	MaxAgeMinutes          float64 `json:"max_age_minutes" yaml:"max_age_minutes"`
	ExcludeRuggedDeployers bool    `json:"exclude_rugged_deployers" yaml:"exclude_rugged_deployers"`
}

// Preset names.
const (
	PresetDefault      = "default"
	PresetAggressive   = "aggressive"
	PresetConservative = "conservative"
)

// Preset filters. Graduated pools typically open near $75k market cap with
// $12-15k liquidity; the default window targets 15-45 minutes after listing.
var (
	DefaultGraduationFilter = GraduationFilter{
		MinLiquidity:           12000,
		MinVolume5m:            1000,
		MinHolders:             75,
		MaxAgeMinutes:          45,
		ExcludeRuggedDeployers: true,
	}

	AggressiveGraduationFilter = GraduationFilter{
		MinLiquidity:           8000,
		MinVolume5m:            500,
		MinHolders:             40,
		MaxAgeMinutes:          20,
		ExcludeRuggedDeployers: true,
	}

	ConservativeGraduationFilter = GraduationFilter{
		MinLiquidity:           20000,
		MinVolume5m:            2000,
		MinHolders:             150,
		MaxAgeMinutes:          120,
		ExcludeRuggedDeployers: true,
	}
)

var presets = map[string]GraduationFilter{
	PresetDefault:      DefaultGraduationFilter,
	PresetAggressive:   AggressiveGraduationFilter,
	PresetConservative: ConservativeGraduationFilter,
}

// FilterPreset returns the preset filter with the given name (case-insensitive).
func FilterPreset(name string) (GraduationFilter, bool) {
	f, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// PresetNames returns the known preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
