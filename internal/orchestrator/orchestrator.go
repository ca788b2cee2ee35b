// Package orchestrator runs scans on a schedule or on demand.
// Flow: scan → record call history → snapshot pairs → notify subscribers
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/storage"
)

// ErrUnknownPreset is returned when a run names a preset that does not exist.
var ErrUnknownPreset = errors.New("unknown filter preset")

// ErrScanRunning is returned by TryRun while another run is in progress.
var ErrScanRunning = errors.New("scan already running")

// Scanner is the part of *scanner.Scanner the orchestrator drives.
type Scanner interface {
	Scan(ctx context.Context, f domain.GraduationFilter) []domain.Candidate
	Notify(c domain.Candidate)
	ClearSeenMints()
	SeenCount() int
}

// Options for creating Orchestrator.
type Options struct {
	Scanner Scanner

	// Optional stores; nil skips that persistence step
	CandidateStore storage.CandidateStore
	SnapshotStore  storage.PairSnapshotStore

	DefaultPreset string
	Now           func() time.Time
	Logger        zerolog.Logger
}

// RunResult contains results from one scan run.
type RunResult struct {
	Preset     string             `json:"preset"`
	Candidates []domain.Candidate `json:"candidates"`
	Passed     int                `json:"passed"`
	Recorded   int                `json:"recorded"`
	Notified   int                `json:"notified"`
	Errors     []string           `json:"errors,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	Duration   time.Duration      `json:"duration"`
}

// Status summarizes orchestrator activity.
type Status struct {
	Running       bool      `json:"running"`
	Runs          int       `json:"runs"`
	LastRunAt     time.Time `json:"last_run_at,omitempty"`
	LastPreset    string    `json:"last_preset,omitempty"`
	LastSurfaced  int       `json:"last_surfaced"`
	LastPassed    int       `json:"last_passed"`
	SeenMints     int       `json:"seen_mints"`
	DefaultPreset string    `json:"default_preset"`
}

// Orchestrator coordinates scan runs. Runs never overlap.
type Orchestrator struct {
	scanner        Scanner
	candidateStore storage.CandidateStore
	snapshotStore  storage.PairSnapshotStore
	defaultPreset  string
	now            func() time.Time
	logger         zerolog.Logger

	runMu sync.Mutex

	mu      sync.RWMutex
	running bool
	runs    int
	last    *RunResult
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.DefaultPreset == "" {
		opts.DefaultPreset = domain.PresetDefault
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Orchestrator{
		scanner:        opts.Scanner,
		candidateStore: opts.CandidateStore,
		snapshotStore:  opts.SnapshotStore,
		defaultPreset:  opts.DefaultPreset,
		now:            opts.Now,
		logger:         opts.Logger,
	}
}

// Run scans with the named preset (empty selects the default), records the
// surfaced candidates and notifies subscribers of those that pass.
// Persistence failures are reported in the result, never returned.
func (o *Orchestrator) Run(ctx context.Context, preset string) (*RunResult, error) {
	if preset == "" {
		preset = o.defaultPreset
	}
	f, ok := domain.FilterPreset(preset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	return o.run(ctx, preset, f), nil
}

// TryRun is Run but returns ErrScanRunning instead of waiting for a run in progress.
func (o *Orchestrator) TryRun(ctx context.Context, preset string) (*RunResult, error) {
	if preset == "" {
		preset = o.defaultPreset
	}
	f, ok := domain.FilterPreset(preset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	if !o.runMu.TryLock() {
		return nil, ErrScanRunning
	}
	defer o.runMu.Unlock()

	return o.run(ctx, preset, f), nil
}

func (o *Orchestrator) run(ctx context.Context, preset string, f domain.GraduationFilter) *RunResult {
	o.setRunning(true)
	defer o.setRunning(false)

	start := o.now()
	result := &RunResult{
		Preset:    preset,
		StartedAt: start,
	}

	// Phase 1: Scan
	result.Candidates = o.scanner.Scan(ctx, f)

	// Phase 2: Call history
	if o.candidateStore != nil {
		for _, c := range result.Candidates {
			err := o.candidateStore.Insert(ctx, domain.NewCandidateRecord(c, preset))
			switch {
			case err == nil:
				result.Recorded++
			case errors.Is(err, storage.ErrDuplicateKey):
				// Already recorded
			default:
				result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", c.Pair.Mint(), err))
			}
		}
	}

	// Phase 3: Pair snapshots
	if o.snapshotStore != nil && len(result.Candidates) > 0 {
		snaps := make([]*domain.PairSnapshot, 0, len(result.Candidates))
		for _, c := range result.Candidates {
			snaps = append(snaps, domain.NewPairSnapshot(c))
		}
		if err := o.snapshotStore.InsertBulk(ctx, snaps); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			result.Errors = append(result.Errors, fmt.Sprintf("snapshot pairs: %v", err))
		}
	}

	// Phase 4: Notify, in rank order
	for _, c := range result.Candidates {
		if !c.Passes {
			continue
		}
		result.Passed++
		o.scanner.Notify(c)
		result.Notified++
	}

	result.Duration = o.now().Sub(start)

	for _, e := range result.Errors {
		o.logger.Warn().Str("preset", preset).Msg(e)
	}
	o.logger.Info().
		Str("preset", preset).
		Int("surfaced", len(result.Candidates)).
		Int("passed", result.Passed).
		Int("recorded", result.Recorded).
		Dur("duration", result.Duration).
		Msg("scan run completed")

	o.mu.Lock()
	o.runs++
	o.last = result
	o.mu.Unlock()

	return result
}

// Schedule runs a scan immediately and then every interval until ctx is done.
func (o *Orchestrator) Schedule(ctx context.Context, interval time.Duration, preset string) error {
	o.logger.Info().Dur("interval", interval).Str("preset", preset).Msg("starting scan scheduler")

	if _, err := o.Run(ctx, preset); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := o.TryRun(ctx, preset); errors.Is(err, ErrScanRunning) {
				o.logger.Debug().Msg("scan already running, skipping tick")
			}
		}
	}
}

// Last returns the most recent run, or nil before the first one.
func (o *Orchestrator) Last() *RunResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// ClearSeen forgets surfaced mints so the next run can surface them again.
func (o *Orchestrator) ClearSeen() {
	o.scanner.ClearSeenMints()
}

// Status returns a snapshot of orchestrator activity.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st := Status{
		Running:       o.running,
		Runs:          o.runs,
		SeenMints:     o.scanner.SeenCount(),
		DefaultPreset: o.defaultPreset,
	}
	if o.last != nil {
		st.LastRunAt = o.last.StartedAt
		st.LastPreset = o.last.Preset
		st.LastSurfaced = len(o.last.Candidates)
		st.LastPassed = o.last.Passed
	}
	return st
}

func (o *Orchestrator) setRunning(v bool) {
	o.mu.Lock()
	o.running = v
	o.mu.Unlock()
}
