package holders

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
)

// DefaultTopN is the number of largest accounts counted as top holders.
const DefaultTopN = 10

// Lookup names used in logs and metrics.
const (
	LookupHolderCount   = "holder_count"
	LookupConcentration = "concentration"
	LookupAuthorities   = "authorities"
)

// Lookup is the set of holder lookups the enricher runs per mint.
type Lookup interface {
	HolderCount(ctx context.Context, mint string) (int, error)
	TopHolderConcentration(ctx context.Context, mint string, topN int) (float64, error)
	MintAuthorities(ctx context.Context, mint string) (mintAuth, freezeAuth bool, err error)
}

var _ Lookup = (*Client)(nil)

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	TopN        int
	Authorities bool // also look up mint/freeze authorities
	Logger      zerolog.Logger
}

// Enricher gathers best-effort holder statistics for a mint.
type Enricher struct {
	lookup Lookup
	opts   EnricherOptions
}

// NewEnricher creates an enricher over lookup.
func NewEnricher(lookup Lookup, opts EnricherOptions) *Enricher {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	return &Enricher{lookup: lookup, opts: opts}
}

// Enrich runs all lookups for mint concurrently and waits for them.
// Each lookup fails on its own: a failed lookup is logged and its field
// stays unknown. Enrich never fails as a whole.
func (e *Enricher) Enrich(ctx context.Context, mint string) domain.HolderStats {
	var (
		stats domain.HolderStats
		wg    sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		n, err := e.lookup.HolderCount(ctx, mint)
		if err != nil {
			e.failed(LookupHolderCount, mint, err)
			return
		}
		stats.Holders = domain.Known(n)
	}()
	go func() {
		defer wg.Done()
		pct, err := e.lookup.TopHolderConcentration(ctx, mint, e.opts.TopN)
		if err != nil {
			e.failed(LookupConcentration, mint, err)
			return
		}
		stats.Concentration = domain.Known(pct)
	}()

	if e.opts.Authorities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mintAuth, freezeAuth, err := e.lookup.MintAuthorities(ctx, mint)
			if err != nil {
				e.failed(LookupAuthorities, mint, err)
				return
			}
			stats.MintAuthority = domain.Known(mintAuth)
			stats.FreezeAuthority = domain.Known(freezeAuth)
		}()
	}

	wg.Wait()
	return stats
}

func (e *Enricher) failed(lookup, mint string, err error) {
	observability.RecordEnrichmentFailure(lookup)
	e.opts.Logger.Warn().
		Err(err).
		Str("lookup", lookup).
		Str("mint", mint).
		Msg("holder lookup failed, keeping defaults")
}
