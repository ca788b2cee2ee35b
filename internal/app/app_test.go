package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-scanner/internal/config"
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage/memory"
)

const latestPairsBody = `{"pairs":[
 {"chainId":"solana","dexId":"raydium","pairAddress":"PoolA",
  "baseToken":{"address":"MintA","name":"Alpha","symbol":"ALP"},
  "quoteToken":{"address":"So11111111111111111111111111111111111111112","symbol":"SOL"},
  "priceUsd":"0.0004","liquidity":{"usd":15000},"volume":{"m5":1200,"h1":14400,"h24":50000},
  "txns":{"m5":{"buys":10,"sells":10}},"marketCap":80000}
]}`

func TestBuild_MemoryBackends(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(latestPairsBody))
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.DexScreener.BaseURL = upstream.URL
	require.NoError(t, cfg.Validate())

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Enricher, "no RPC endpoint configured")

	got := a.Scanner.Scan(context.Background(), cfg.Filter())
	require.Len(t, got, 1)
	assert.Equal(t, "MintA", got[0].Pair.Mint())
	assert.False(t, got[0].Metrics.Holders.Known)

	stores, err := a.OpenStores(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &memory.CandidateStore{}, stores.Candidates)
	assert.IsType(t, &memory.PairSnapshotStore{}, stores.Snapshots)
}

func TestBuild_WithRPCEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Solana.RPCURL = "http://127.0.0.1:1"

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Enricher)
	assert.NotNil(t, a.RPC)
}

func TestProbeRPC(t *testing.T) {
	var calls atomic.Int32
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":312000000}`))
	}))
	defer rpc.Close()

	cfg := config.Default()
	cfg.Solana.RPCURL = rpc.URL

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	a.ProbeRPC(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuild_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Build(ctx, cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestBuild_FilterFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.Preset = domain.PresetConservative

	assert.Equal(t, domain.ConservativeGraduationFilter, cfg.Filter())
}
