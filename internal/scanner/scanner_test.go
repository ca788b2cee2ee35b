package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/scoring"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeFeed struct {
	mu    sync.Mutex
	pairs []domain.Pair
	err   error
	calls int
	got   struct {
		chain, exchange string
		limit           int
	}
}

func (f *fakeFeed) FetchLatestPairs(_ context.Context, chain, exchange string, limit int) ([]domain.Pair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got.chain, f.got.exchange, f.got.limit = chain, exchange, limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Pair, len(f.pairs))
	copy(out, f.pairs)
	return out, nil
}

func (f *fakeFeed) set(pairs ...domain.Pair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = pairs
}

type fakeEnricher struct {
	stats map[string]domain.HolderStats
	calls atomic.Int32
}

func (e *fakeEnricher) Enrich(_ context.Context, mint string) domain.HolderStats {
	e.calls.Add(1)
	return e.stats[mint]
}

// pair builds a pair whose score is driven by liquidity:
// > 50k adds 1.0, > 20k adds 0.5, otherwise neutral.
func pair(mint string, liquidity float64) domain.Pair {
	return domain.Pair{
		ChainID:     "solana",
		ExchangeID:  "raydium",
		PairAddress: "Pool" + mint,
		BaseToken:   domain.Token{Address: mint, Symbol: "T" + mint},
		Liquidity:   domain.Liquidity{USD: liquidity},
		Volume:      domain.WindowValues{M5: 1200, H1: 14400, H24: 50000},
		Txns:        domain.WindowTxns{M5: domain.TxnCount{Buys: 10, Sells: 10}},
		MarketCap:   80000,
		CreatedAt:   testNow.Add(-10 * time.Minute),
	}
}

func newTestScanner(feed Feed, enricher Enricher, workers int) *Scanner {
	opts := DefaultOptions()
	opts.Workers = workers
	opts.Now = func() time.Time { return testNow }
	return New(feed, enricher, opts)
}

func mints(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Pair.Mint()
	}
	return out
}

func TestScan_UsesFeedTarget(t *testing.T) {
	feed := &fakeFeed{}
	s := newTestScanner(feed, nil, 1)

	s.Scan(context.Background(), domain.DefaultGraduationFilter)

	assert.Equal(t, "solana", feed.got.chain)
	assert.Equal(t, "raydium", feed.got.exchange)
	assert.Equal(t, DefaultFetchLimit, feed.got.limit)
}

func TestScan_SecondScanReturnsEmpty(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000), pair("B", 15000)}}
	s := newTestScanner(feed, nil, 4)
	ctx := context.Background()

	first := s.Scan(ctx, domain.DefaultGraduationFilter)
	second := s.Scan(ctx, domain.DefaultGraduationFilter)

	assert.Len(t, first, 2)
	assert.NotNil(t, second)
	assert.Empty(t, second)
	assert.Equal(t, 2, s.SeenCount())
}

func TestScan_SeenMintExcludedEvenIfMetricsChange(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000)}}
	s := newTestScanner(feed, nil, 1)
	ctx := context.Background()

	require.Len(t, s.Scan(ctx, domain.DefaultGraduationFilter), 1)

	changed := pair("A", 90000)
	changed.PairAddress = "OtherPool"
	feed.set(changed, pair("B", 15000))

	second := s.Scan(ctx, domain.DefaultGraduationFilter)
	assert.Equal(t, []string{"B"}, mints(second))
}

func TestScan_ClearSeenMints(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000)}}
	s := newTestScanner(feed, nil, 1)
	ctx := context.Background()

	s.Scan(ctx, domain.DefaultGraduationFilter)
	s.ClearSeenMints()
	assert.Equal(t, 0, s.SeenCount())

	again := s.Scan(ctx, domain.DefaultGraduationFilter)
	assert.Len(t, again, 1)
}

func TestScan_DuplicateMintInBatch(t *testing.T) {
	second := pair("A", 90000)
	second.PairAddress = "PoolA2"
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000), second}}
	s := newTestScanner(feed, nil, 4)

	got := s.Scan(context.Background(), domain.DefaultGraduationFilter)

	require.Len(t, got, 1)
	assert.Equal(t, "PoolA", got[0].Pair.PairAddress)
}

func TestScan_RankedByScoreStable(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{
		pair("low1", 15000),  // 5.0
		pair("high", 60000),  // 6.0
		pair("mid", 25000),   // 5.5
		pair("low2", 15000),  // 5.0
		pair("high2", 70000), // 6.0
		pair("low3", 15000),  // 5.0
	}}

	for _, workers := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			s := newTestScanner(feed, nil, workers)

			got := s.Scan(context.Background(), domain.DefaultGraduationFilter)

			assert.Equal(t, []string{"high", "high2", "mid", "low1", "low2", "low3"}, mints(got))
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
		})
	}
}

func TestScan_FeedFailureReturnsEmpty(t *testing.T) {
	feed := &fakeFeed{err: errors.New("dexscreener down")}
	s := newTestScanner(feed, nil, 4)

	got := s.Scan(context.Background(), domain.DefaultGraduationFilter)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, s.SeenCount())
}

func TestScan_EnrichmentMerged(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000), pair("B", 15000), pair("C", 15000)}}
	enricher := &fakeEnricher{stats: map[string]domain.HolderStats{
		"A": {Holders: domain.Known(250), Concentration: domain.Known(15.0)},
		"B": {Concentration: domain.Known(65.0)}, // holder lookup failed
		// C: both lookups failed
	}}
	s := newTestScanner(feed, enricher, 2)

	got := s.Scan(context.Background(), domain.DefaultGraduationFilter)
	require.Len(t, got, 3)
	assert.Equal(t, int32(3), enricher.calls.Load())

	byMint := make(map[string]domain.Candidate)
	for _, c := range got {
		byMint[c.Pair.Mint()] = c
	}

	a := byMint["A"]
	assert.True(t, a.Passes)
	assert.Equal(t, 250, a.Metrics.Holders.Value)
	assert.InDelta(t, 7.0, a.Score, 1e-9) // +1 holders, +1 concentration

	b := byMint["B"]
	assert.False(t, b.Metrics.Holders.Known)
	assert.False(t, b.Passes)
	assert.Equal(t, []string{"Top 10 holders own 65.0% (high concentration)"}, b.Failures)
	assert.InDelta(t, 4.0, b.Score, 1e-9)

	c := byMint["C"]
	assert.True(t, c.Passes, "unknown holder data must not fail the filter: %v", c.Failures)
	assert.InDelta(t, scoring.BaseScore, c.Score, 1e-9)

	assert.Equal(t, []string{"A", "C", "B"}, mints(got))
}

func TestScan_CandidateInvariants(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{
		pair("A", 500),
		pair("B", 15000),
		pair("C", 200000),
	}}
	s := newTestScanner(feed, nil, 2)

	for _, c := range s.Scan(context.Background(), domain.ConservativeGraduationFilter) {
		assert.GreaterOrEqual(t, c.Score, scoring.MinScore)
		assert.LessOrEqual(t, c.Score, scoring.MaxScore)
		assert.Equal(t, len(c.Failures) == 0, c.Passes, "mint %s", c.Pair.Mint())
		assert.Len(t, c.CandidateID, 64)
		assert.Equal(t, testNow, c.ScannedAt)
		assert.Equal(t, c.Pair.Mint(), c.Graduation.Mint)
		assert.Equal(t, c.Pair.CreatedAt, c.Graduation.GraduatedAt)
	}
}

func TestScan_FailingCandidatesReturned(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 5000)}}
	s := newTestScanner(feed, nil, 1)

	got := s.Scan(context.Background(), domain.DefaultGraduationFilter)

	require.Len(t, got, 1)
	assert.False(t, got[0].Passes)
	assert.Contains(t, got[0].Failures, "Liquidity $5000 < $12000")
}

func TestScan_CancelledContextReleasesClaims(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000), pair("B", 15000)}}
	s := newTestScanner(feed, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.Scan(ctx, domain.DefaultGraduationFilter)
	assert.Empty(t, got)
	assert.Equal(t, 0, s.SeenCount())

	again := s.Scan(context.Background(), domain.DefaultGraduationFilter)
	assert.Len(t, again, 2)
}

// cancellingEnricher ends the scan's context while enriching mint.
type cancellingEnricher struct {
	mint   string
	cancel context.CancelFunc
}

func (e *cancellingEnricher) Enrich(_ context.Context, mint string) domain.HolderStats {
	if mint == e.mint {
		e.cancel()
	}
	return domain.HolderStats{}
}

func TestScan_DeadlineDuringEnrichmentReleasesClaim(t *testing.T) {
	feed := &fakeFeed{pairs: []domain.Pair{pair("A", 15000), pair("B", 15000)}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestScanner(feed, &cancellingEnricher{mint: "A", cancel: cancel}, 1)

	got := s.Scan(ctx, domain.DefaultGraduationFilter)
	assert.Empty(t, got, "partially enriched candidates must not surface")
	assert.Equal(t, 0, s.SeenCount())

	enricher := &fakeEnricher{stats: map[string]domain.HolderStats{
		"A": {Holders: domain.Known(250)},
	}}
	s.enricher = enricher
	again := s.Scan(context.Background(), domain.DefaultGraduationFilter)
	require.Len(t, again, 2)
	for _, c := range again {
		if c.Pair.Mint() == "A" {
			assert.Equal(t, domain.Known(250), c.Metrics.Holders)
		}
	}
}

func TestScan_ConcurrentScansNeverDuplicate(t *testing.T) {
	var pairs []domain.Pair
	for i := 0; i < 50; i++ {
		pairs = append(pairs, pair(fmt.Sprintf("M%02d", i), 15000))
	}
	feed := &fakeFeed{pairs: pairs}
	s := newTestScanner(feed, nil, 4)

	var total atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			total.Add(int32(len(s.Scan(context.Background(), domain.DefaultGraduationFilter))))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), total.Load())
}

func TestScan_SkipsPairsWithoutMint(t *testing.T) {
	noMint := pair("", 15000)
	feed := &fakeFeed{pairs: []domain.Pair{noMint, pair("A", 15000)}}
	s := newTestScanner(feed, nil, 1)

	got := s.Scan(context.Background(), domain.DefaultGraduationFilter)

	assert.Equal(t, []string{"A"}, mints(got))
}

func TestEvaluate_DoesNotTouchSeenSet(t *testing.T) {
	s := newTestScanner(&fakeFeed{}, nil, 1)

	c := s.Evaluate(context.Background(), pair("A", 15000), domain.DefaultGraduationFilter)

	assert.True(t, c.Passes)
	assert.Equal(t, 0, s.SeenCount())
	assert.NotEmpty(t, c.CandidateID)
}
