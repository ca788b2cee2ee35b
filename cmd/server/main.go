// Package main runs the graduation scanner as a long-lived service:
// scheduled scans, the HTTP API, and the live candidate stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"graduation-scanner/internal/api"
	"graduation-scanner/internal/app"
	"graduation-scanner/internal/config"
	"graduation-scanner/internal/logging"
	"graduation-scanner/internal/orchestrator"
	"graduation-scanner/internal/stream"
)

type serverFlags struct {
	configPath string
	envFile    string
	preset     string
	addr       string
	interval   time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f serverFlags

	cmd := &cobra.Command{
		Use:   "graduation-server",
		Short: "Scan DexScreener for graduated tokens and serve candidates",
		Long: `Runs scans on a fixed interval, records candidates, and serves them over HTTP.

Examples:
  graduation-server --config config.yaml
  graduation-server --preset aggressive --interval 30s --addr :9090`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&f.preset, "preset", "", "filter preset for scheduled scans (default|aggressive|conservative)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "scan interval")

	return cmd
}

func loadConfig(cmd *cobra.Command, f serverFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("preset") {
		cfg.Scan.Preset = f.preset
	}
	if cmd.Flags().Changed("addr") {
		cfg.HTTP.Addr = f.addr
	}
	if cmd.Flags().Changed("interval") {
		cfg.Scan.Interval = f.interval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, f serverFlags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.ProbeRPC(ctx)

	stores, err := a.OpenStores(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("storage", cfg.Storage.Backend).Str("cache", cfg.Cache.Backend).Msg("backends ready")

	hubOpts := stream.DefaultOptions()
	hubOpts.Logger = logger.With().Str("component", "stream").Logger()
	hub := stream.NewHub(hubOpts)
	defer hub.Close()
	a.Scanner.Subscribe("stream", hub.Broadcast)

	orch := orchestrator.New(orchestrator.Options{
		Scanner:        a.Scanner,
		CandidateStore: stores.Candidates,
		SnapshotStore:  stores.Snapshots,
		DefaultPreset:  cfg.Scan.Preset,
		Logger:         logger.With().Str("component", "orchestrator").Logger(),
	})

	apiOpts := api.DefaultOptions()
	apiOpts.Addr = cfg.HTTP.Addr
	apiOpts.Stream = hub
	apiOpts.Logger = logger.With().Str("component", "api").Logger()
	srv := api.NewServer(orch, apiOpts)

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := orch.Schedule(ctx, cfg.Scan.Interval, cfg.Scan.Preset); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scheduler: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err = <-errCh:
		logger.Error().Err(err).Msg("component failed, shutting down")
	}

	return shutdown(srv, logger, err)
}

func shutdown(srv *api.Server, logger zerolog.Logger, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown")
	}
	logger.Info().Msg("server stopped")
	return cause
}
