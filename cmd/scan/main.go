// Package main is a one-shot command line front for the graduation scanner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"graduation-scanner/internal/app"
	"graduation-scanner/internal/config"
	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/logging"
	"graduation-scanner/internal/orchestrator"
	"graduation-scanner/internal/solana"
)

// errNoPair is returned when a lookup finds nothing on the target exchange.
var errNoPair = errors.New("no pair found")

type globalFlags struct {
	configPath string
	envFile    string
	format     string
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
	var g globalFlags

	root := &cobra.Command{
		Use:          "graduation-scan",
		Short:        "Find and score newly graduated tokens",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&g.format, "format", "auto", "output format (auto|table|json)")

	root.AddCommand(runCmd(&g))
	root.AddCommand(callCmd(&g))
	root.AddCommand(presetsCmd(&g))

	return root
}

func runCmd(g *globalFlags) *cobra.Command {
	var (
		preset  string
		passing bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scan and print the candidates",
		Long: `Fetches the latest pairs, scores them, and prints the ranked candidates.

Examples:
  graduation-scan run
  graduation-scan run --preset aggressive --passing
  graduation-scan run --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := setup(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			stores, err := a.OpenStores(cmd.Context())
			if err != nil {
				return err
			}

			if preset == "" {
				preset = cfg.Scan.Preset
			}
			orch := orchestrator.New(orchestrator.Options{
				Scanner:        a.Scanner,
				CandidateStore: stores.Candidates,
				SnapshotStore:  stores.Snapshots,
				DefaultPreset:  cfg.Scan.Preset,
				Logger:         a.Logger,
			})

			result, err := orch.Run(cmd.Context(), preset)
			if err != nil {
				return err
			}

			candidates := result.Candidates
			if passing {
				candidates = passingOnly(candidates)
			}
			return render(cmd.OutOrStdout(), outputFormat(g.format), candidates)
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "filter preset (default|aggressive|conservative)")
	cmd.Flags().BoolVar(&passing, "passing", false, "only print candidates that pass the filter")

	return cmd
}

func callCmd(g *globalFlags) *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "call <mint|query>",
		Short: "Score a single token by mint address or search query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := setup(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			if preset == "" {
				preset = cfg.Scan.Preset
			}
			f, ok := domain.FilterPreset(preset)
			if !ok {
				return fmt.Errorf("%w: %s", orchestrator.ErrUnknownPreset, preset)
			}

			pair, err := lookupPair(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			c := a.Scanner.Evaluate(cmd.Context(), *pair, f)
			return render(cmd.OutOrStdout(), outputFormat(g.format), []domain.Candidate{c})
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "filter preset (default|aggressive|conservative)")

	return cmd
}

func presetsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List filter presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderPresets(cmd.OutOrStdout(), outputFormat(g.format))
		},
	}
}

func setup(ctx context.Context, g *globalFlags) (*app.App, *config.Config, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return nil, nil, err
	}

	// Logs go to stderr so stdout stays parseable.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// lookupPair resolves arg as a mint address when it parses as one and as a
// search query otherwise. Search results keep the feed's order.
func lookupPair(ctx context.Context, a *app.App, arg string) (*domain.Pair, error) {
	if solana.IsPublicKey(arg) {
		pair, err := a.Feed.FetchPairForMint(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("fetch pair for %s: %w", arg, err)
		}
		if pair == nil {
			return nil, fmt.Errorf("%w for mint %s", errNoPair, arg)
		}
		return pair, nil
	}

	pairs, err := a.Feed.SearchPairs(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", arg, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w for query %q", errNoPair, arg)
	}
	return &pairs[0], nil
}

func outputFormat(flag string) string {
	if flag != formatAuto {
		return flag
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return formatTable
	}
	return formatJSON
}
