// Package scanner runs the scan, enrich, filter, score and rank pipeline
// over newly listed pairs.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"graduation-scanner/internal/discovery"
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/filter"
	"graduation-scanner/internal/idhash"
	"graduation-scanner/internal/metrics"
	"graduation-scanner/internal/observability"
	"graduation-scanner/internal/scoring"
)

// Default configuration values.
const (
	DefaultChain      = "solana"
	DefaultExchange   = "raydium"
	DefaultFetchLimit = 100
	DefaultWorkers    = 4
)

// Feed supplies the latest pairs on a chain and exchange.
type Feed interface {
	FetchLatestPairs(ctx context.Context, chain, exchange string, limit int) ([]domain.Pair, error)
}

// Enricher supplies best-effort holder statistics for a mint.
type Enricher interface {
	Enrich(ctx context.Context, mint string) domain.HolderStats
}

// Options configures a Scanner.
type Options struct {
	Chain      string
	Exchange   string
	FetchLimit int
	Workers    int // pairs processed concurrently; 1 processes in fetch order
	Now        func() time.Time
	Logger     zerolog.Logger
}

// DefaultOptions returns default scanner options.
func DefaultOptions() Options {
	return Options{
		Chain:      DefaultChain,
		Exchange:   DefaultExchange,
		FetchLimit: DefaultFetchLimit,
		Workers:    DefaultWorkers,
		Now:        time.Now,
		Logger:     zerolog.Nop(),
	}
}

// Scanner discovers graduated tokens. It owns the seen set, so build one
// per process and share it. Scans on one Scanner never overlap.
type Scanner struct {
	feed     Feed
	enricher Enricher
	seen     *discovery.SeenSet
	opts     Options

	scanMu sync.Mutex

	subsMu sync.RWMutex
	subs   []subscription
}

// New creates a scanner. A nil enricher leaves holder data unknown.
func New(feed Feed, enricher Enricher, opts Options) *Scanner {
	if opts.Chain == "" {
		opts.Chain = DefaultChain
	}
	if opts.Exchange == "" {
		opts.Exchange = DefaultExchange
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = DefaultFetchLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scanner{
		feed:     feed,
		enricher: enricher,
		seen:     discovery.NewSeenSet(),
		opts:     opts,
	}
}

// Scan fetches the latest pairs and returns candidates for mints not seen
// before, ranked by score descending. Equal scores keep fetch order.
// A feed failure yields an empty list; Scan has no failure path.
func (s *Scanner) Scan(ctx context.Context, f domain.GraduationFilter) []domain.Candidate {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	start := time.Now()
	logger := s.opts.Logger.With().Str("run_id", uuid.NewString()).Logger()

	pairs, err := s.feed.FetchLatestPairs(ctx, s.opts.Chain, s.opts.Exchange, s.opts.FetchLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("pair feed unavailable, returning no candidates")
		observability.RecordScan("feed_error", time.Since(start).Seconds())
		return []domain.Candidate{}
	}

	// Claim mints in fetch order so a mint listed twice in one batch
	// yields one candidate, from its first pair.
	var batch []domain.Pair
	for _, p := range pairs {
		mint := p.Mint()
		if mint == "" {
			logger.Debug().Str("pair", p.PairAddress).Msg("skipping pair without base token")
			continue
		}
		if !s.seen.Add(mint) {
			continue
		}
		batch = append(batch, p)
	}

	results := make([]*domain.Candidate, len(batch))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)
	for i, p := range batch {
		g.Go(func() error {
			if ctx.Err() != nil {
				// Never surfaced, so a later scan may pick it up.
				s.seen.Remove(p.Mint())
				return nil
			}
			c := s.evaluate(ctx, p, f, logger)
			if ctx.Err() != nil {
				// Enrichment may have been cut short; drop the partial candidate.
				s.seen.Remove(p.Mint())
				return nil
			}
			results[i] = &c
			return nil
		})
	}
	_ = g.Wait()

	candidates := make([]domain.Candidate, 0, len(batch))
	passed := 0
	for _, c := range results {
		if c == nil {
			continue
		}
		candidates = append(candidates, *c)
		observability.RecordCandidate(c.Passes)
		if c.Passes {
			passed++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	observability.RecordScan("ok", time.Since(start).Seconds())
	observability.MarkScanSuccess(time.Now().Unix())
	observability.UpdateSeenMints(s.seen.Len())

	logger.Info().
		Int("fetched", len(pairs)).
		Int("candidates", len(candidates)).
		Int("passed", passed).
		Dur("duration", time.Since(start)).
		Msg("scan complete")

	return candidates
}

// Evaluate builds a candidate for one pair without consulting or updating
// the seen set.
func (s *Scanner) Evaluate(ctx context.Context, pair domain.Pair, f domain.GraduationFilter) domain.Candidate {
	return s.evaluate(ctx, pair, f, s.opts.Logger)
}

func (s *Scanner) evaluate(ctx context.Context, pair domain.Pair, f domain.GraduationFilter, logger zerolog.Logger) domain.Candidate {
	now := s.opts.Now()

	m := metrics.Project(pair, now)
	if s.enricher != nil {
		m = m.WithHolders(s.enricher.Enrich(ctx, pair.Mint()))
	}

	result := filter.Evaluate(pair, m, f)

	c := domain.Candidate{
		CandidateID: idhash.ComputeCandidateID(pair.ChainID, pair.PairAddress, pair.Mint(), now.UnixMilli()),
		Graduation:  domain.NewGraduation(pair),
		Pair:        pair,
		Metrics:     m,
		Score:       scoring.Score(pair, m),
		Passes:      result.Passes,
		Failures:    result.Failures,
		Signals:     scoring.Explain(pair, m),
		ScannedAt:   now,
	}

	logger.Debug().
		Str("mint", pair.Mint()).
		Str("pair", pair.PairAddress).
		Float64("score", c.Score).
		Bool("passes", c.Passes).
		Strs("failures", c.Failures).
		Msg("candidate evaluated")

	return c
}

// ClearSeenMints forgets every surfaced mint so they can surface again.
func (s *Scanner) ClearSeenMints() {
	s.seen.Clear()
	observability.UpdateSeenMints(0)
	s.opts.Logger.Info().Msg("seen mints cleared")
}

// SeenCount returns the number of mints surfaced since the last clear.
func (s *Scanner) SeenCount() int {
	return s.seen.Len()
}
