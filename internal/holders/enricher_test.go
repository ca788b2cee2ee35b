package holders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"graduation-scanner/internal/domain"
)

var errLookup = errors.New("lookup failed")

type fakeLookup struct {
	holders       int
	holdersErr    error
	concentration float64
	concErr       error
	mintAuth      bool
	freezeAuth    bool
	authErr       error
	delay         time.Duration
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
	gotTopN       atomic.Int32
}

func (f *fakeLookup) enter() func() {
	n := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeLookup) HolderCount(context.Context, string) (int, error) {
	defer f.enter()()
	return f.holders, f.holdersErr
}

func (f *fakeLookup) TopHolderConcentration(_ context.Context, _ string, topN int) (float64, error) {
	defer f.enter()()
	f.gotTopN.Store(int32(topN))
	return f.concentration, f.concErr
}

func (f *fakeLookup) MintAuthorities(context.Context, string) (bool, bool, error) {
	defer f.enter()()
	return f.mintAuth, f.freezeAuth, f.authErr
}

func TestEnricher_AllKnown(t *testing.T) {
	lookup := &fakeLookup{holders: 120, concentration: 33.5, freezeAuth: true}
	e := NewEnricher(lookup, EnricherOptions{Authorities: true})

	stats := e.Enrich(context.Background(), testMint)

	assert.Equal(t, domain.Known(120), stats.Holders)
	assert.Equal(t, domain.Known(33.5), stats.Concentration)
	assert.Equal(t, domain.Known(false), stats.MintAuthority)
	assert.Equal(t, domain.Known(true), stats.FreezeAuthority)
	assert.Equal(t, int32(DefaultTopN), lookup.gotTopN.Load())
}

func TestEnricher_IndependentFailures(t *testing.T) {
	tests := []struct {
		name        string
		lookup      *fakeLookup
		wantHolders bool
		wantConc    bool
	}{
		{"holder count fails", &fakeLookup{holdersErr: errLookup, concentration: 20}, false, true},
		{"concentration fails", &fakeLookup{holders: 80, concErr: errLookup}, true, false},
		{"both fail", &fakeLookup{holdersErr: errLookup, concErr: errLookup}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEnricher(tt.lookup, EnricherOptions{})

			stats := e.Enrich(context.Background(), testMint)

			assert.Equal(t, tt.wantHolders, stats.Holders.Known)
			assert.Equal(t, tt.wantConc, stats.Concentration.Known)
			assert.False(t, stats.MintAuthority.Known, "authorities not requested")
		})
	}
}

func TestEnricher_MergeKeepsDefaultsOnFailure(t *testing.T) {
	e := NewEnricher(&fakeLookup{holdersErr: errLookup, concentration: 65}, EnricherOptions{})
	base := domain.TokenMetrics{Mint: testMint}

	merged := base.WithHolders(e.Enrich(context.Background(), testMint))

	assert.False(t, merged.Holders.Known)
	assert.Zero(t, merged.Holders.Value)
	assert.Equal(t, 65.0, merged.TopHolderConcentration.Value)
}

func TestEnricher_LookupsRunConcurrently(t *testing.T) {
	lookup := &fakeLookup{delay: 50 * time.Millisecond}
	e := NewEnricher(lookup, EnricherOptions{Authorities: true})

	start := time.Now()
	e.Enrich(context.Background(), testMint)
	elapsed := time.Since(start)

	assert.Equal(t, int32(3), lookup.maxInFlight.Load())
	assert.Less(t, elapsed, 140*time.Millisecond)
}
