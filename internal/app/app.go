// Package app wires configured components into a running scanner.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"graduation-scanner/internal/cache"
	"graduation-scanner/internal/config"
	"graduation-scanner/internal/dexscreener"
	"graduation-scanner/internal/holders"
	"graduation-scanner/internal/scanner"
	"graduation-scanner/internal/solana"
	"graduation-scanner/internal/storage"
	chstore "graduation-scanner/internal/storage/clickhouse"
	"graduation-scanner/internal/storage/memory"
	"graduation-scanner/internal/storage/migrations"
	pgstore "graduation-scanner/internal/storage/postgres"
)

// App holds the components built from one configuration.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Feed     *dexscreener.Client
	RPC      *solana.HTTPClient // nil when no RPC endpoint is configured
	Enricher *holders.Enricher  // nil when no RPC endpoint is configured
	Scanner  *scanner.Scanner

	closers []func()
}

// Stores holds the persistence backends.
type Stores struct {
	Candidates storage.CandidateStore
	Snapshots  storage.PairSnapshotStore
}

// Build creates the pair cache, feed client, holder enricher and scanner.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	store, err := a.pairStore(ctx)
	if err != nil {
		return nil, err
	}

	a.Feed = dexscreener.NewClient(
		dexscreener.WithBaseURL(cfg.DexScreener.BaseURL),
		dexscreener.WithTarget(cfg.Scan.Chain, cfg.Scan.Exchange),
		dexscreener.WithTimeout(cfg.DexScreener.Timeout),
		dexscreener.WithRateLimit(cfg.DexScreener.RequestsPerSec, cfg.DexScreener.Burst),
		dexscreener.WithStore(store),
		dexscreener.WithLogger(logger.With().Str("component", "dexscreener").Logger()),
	)

	var enricher scanner.Enricher
	if cfg.Solana.RPCURL != "" {
		hopts := holders.DefaultOptions()
		hopts.RequestsPerSec = cfg.Solana.RequestsPerSec
		hopts.Logger = logger.With().Str("component", "holders").Logger()

		a.RPC = solana.NewHTTPClient(cfg.Solana.RPCURL,
			solana.WithTimeout(cfg.Solana.Timeout),
			solana.WithLogger(hopts.Logger),
		)
		a.Enricher = holders.NewEnricher(holders.NewClient(a.RPC, hopts), holders.EnricherOptions{
			TopN:        cfg.Solana.TopN,
			Authorities: cfg.Solana.Authorities,
			Logger:      hopts.Logger,
		})
		enricher = a.Enricher
	} else {
		logger.Warn().Msg("no Solana RPC endpoint configured, holder data stays unknown")
	}

	sopts := scanner.DefaultOptions()
	sopts.Chain = cfg.Scan.Chain
	sopts.Exchange = cfg.Scan.Exchange
	sopts.FetchLimit = cfg.Scan.FetchLimit
	sopts.Workers = cfg.Scan.Workers
	sopts.Logger = logger.With().Str("component", "scanner").Logger()
	a.Scanner = scanner.New(a.Feed, enricher, sopts)

	return a, nil
}

func (a *App) pairStore(ctx context.Context) (cache.Store, error) {
	cfg := a.Config.Cache
	if cfg.Backend != config.BackendRedis {
		return cache.NewMemory(cfg.TTL), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	a.closers = append(a.closers, func() { client.Close() })

	a.Logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis pair cache")
	return cache.NewRedis(client, cache.RedisOptions{
		Prefix: cfg.RedisPrefix,
		TTL:    cfg.TTL,
		Logger: a.Logger.With().Str("component", "cache").Logger(),
	}), nil
}

// OpenStores connects the configured backends and applies migrations.
func (a *App) OpenStores(ctx context.Context) (*Stores, error) {
	cfg := a.Config.Storage
	if cfg.Backend != config.BackendDatabase {
		return &Stores{
			Candidates: memory.NewCandidateStore(),
			Snapshots:  memory.NewPairSnapshotStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	a.closers = append(a.closers, func() {
		conn.Close()
		pool.Close()
	})

	return &Stores{
		Candidates: pgstore.NewCandidateStore(pool),
		Snapshots:  chstore.NewPairSnapshotStore(conn),
	}, nil
}

// ProbeRPC checks that the RPC endpoint answers. Failures are logged only;
// enrichment degrades per lookup anyway.
func (a *App) ProbeRPC(ctx context.Context) {
	if a.RPC == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slot, err := a.RPC.GetSlot(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Solana RPC endpoint unreachable, holder data will be unknown until it recovers")
		return
	}
	a.Logger.Info().Int64("slot", slot).Msg("Solana RPC endpoint reachable")
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
