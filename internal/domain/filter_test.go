package domain

import (
	"sort"
	"testing"
)

func TestFilterPreset(t *testing.T) {
	tests := []struct {
		name string
		want GraduationFilter
		ok   bool
	}{
		{"default", DefaultGraduationFilter, true},
		{"aggressive", AggressiveGraduationFilter, true},
		{"conservative", ConservativeGraduationFilter, true},
		{" Conservative ", ConservativeGraduationFilter, true},
		{"AGGRESSIVE", AggressiveGraduationFilter, true},
		{"reckless", GraduationFilter{}, false},
		{"", GraduationFilter{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilterPreset(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) != 3 {
		t.Fatalf("expected 3 presets, got %v", names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	for _, n := range names {
		if _, ok := FilterPreset(n); !ok {
			t.Errorf("listed preset %q not resolvable", n)
		}
	}
}

func TestPresetsOrdered(t *testing.T) {
	a, d, c := AggressiveGraduationFilter, DefaultGraduationFilter, ConservativeGraduationFilter
	if !(a.MinLiquidity < d.MinLiquidity && d.MinLiquidity < c.MinLiquidity) {
		t.Errorf("liquidity gates not ordered: %v %v %v", a.MinLiquidity, d.MinLiquidity, c.MinLiquidity)
	}
	if !(a.MinHolders < d.MinHolders && d.MinHolders < c.MinHolders) {
		t.Errorf("holder gates not ordered: %v %v %v", a.MinHolders, d.MinHolders, c.MinHolders)
	}
}
