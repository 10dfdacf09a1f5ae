// Package pipeline runs the three batch stages: simulate trades, aggregate bars and build
// features. Each stage reads all of its input, transforms it in memory and writes exactly
// one output file, so a failed run leaves nothing behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stock-trades/internal/bars"
	"stock-trades/internal/features"
	"stock-trades/internal/manifest"
	"stock-trades/internal/metrics"
	"stock-trades/internal/redisx"
	"stock-trades/internal/saver"
	"stock-trades/internal/simulate"
	"stock-trades/internal/slogx"
	"stock-trades/internal/storage"
	"stock-trades/internal/tickers"
)

// ErrNoInput is returned when a stage finds nothing to process. The run is halted and no
// output is written.
var ErrNoInput = errors.New("pipeline: no input")

// Stage names, also used as lock keys, manifest stages and metric labels.
type Stage string

const (
	StageTrades   Stage = "trades"
	StageBars     Stage = "bars"
	StageFeatures Stage = "features"
)

// Discovery selects how a stage finds its input files.
type Discovery string

const (
	// DiscoverGlob lists the upstream directory.
	DiscoverGlob Discovery = "glob"
	// DiscoverManifest reads the upstream stage's manifest entries.
	DiscoverManifest Discovery = "manifest"
)

// Deps are the collaborators of a Pipeline. Backend, Tickers and Simulator are required.
type Deps struct {
	Backend   storage.Backend
	Tickers   tickers.Store
	Simulator *simulate.Simulator
	Manifest  manifest.Store
	Locker    redisx.Locker
	Metrics   *metrics.Metrics
	Pusher    *metrics.Pusher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Settings are the tunables of a Pipeline.
type Settings struct {
	Format    string // parquet, csv or json
	Layout    Layout
	Discovery Discovery
	Interval  time.Duration
	Workers   int
	LockTTL   time.Duration
}

// Pipeline runs stages against one backend.
type Pipeline struct {
	backend  storage.Backend
	tickers  tickers.Store
	manifest manifest.Store
	locker   redisx.Locker
	metrics  *metrics.Metrics
	pusher   *metrics.Pusher
	log      *slog.Logger
	now      func() time.Time

	simMu sync.Mutex
	sim   *simulate.Simulator

	agg       bars.Aggregator
	builder   features.Builder
	format    string
	layout    Layout
	discovery Discovery
	lockTTL   time.Duration
}

func New(d Deps, s Settings) (*Pipeline, error) {
	if d.Backend == nil || d.Tickers == nil || d.Simulator == nil {
		return nil, errors.New("pipeline: backend, tickers and simulator are required")
	}
	if s.Format == "" {
		s.Format = saver.FormatParquet
	}
	if !saver.Supported(s.Format) {
		return nil, fmt.Errorf("pipeline: unsupported save format %q", s.Format)
	}
	switch s.Discovery {
	case "":
		s.Discovery = DiscoverGlob
	case DiscoverGlob, DiscoverManifest:
	default:
		return nil, fmt.Errorf("pipeline: unknown discovery mode %q", s.Discovery)
	}
	if s.Layout == (Layout{}) {
		s.Layout = DefaultLayout()
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 10 * time.Minute
	}
	if d.Manifest == nil {
		d.Manifest = manifest.Nop{}
	}
	if d.Locker == nil {
		d.Locker = redisx.NopLocker{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	log := slogx.Or(d.Logger).With(slog.String("component", "pipeline"))

	return &Pipeline{
		backend:   d.Backend,
		tickers:   d.Tickers,
		manifest:  d.Manifest,
		locker:    d.Locker,
		metrics:   d.Metrics,
		pusher:    d.Pusher,
		log:       log,
		now:       d.Now,
		sim:       d.Simulator,
		agg:       bars.Aggregator{Interval: s.Interval, Workers: s.Workers},
		builder:   features.Builder{Workers: s.Workers, Logger: log},
		format:    s.Format,
		layout:    s.Layout,
		discovery: s.Discovery,
		lockTTL:   s.LockTTL,
	}, nil
}

// RunReport summarizes one stage run.
type RunReport struct {
	RunID      string
	Stage      Stage
	Inputs     []string
	Output     string // empty when nothing was written
	Quarantine string
	RowsIn     int
	RowsOut    int
	Rejected   int
	StartedAt  time.Time
	Duration   time.Duration
}

// run wraps a stage body with locking, bookkeeping, metrics and logging.
func (p *Pipeline) run(ctx context.Context, stage Stage, body func(ctx context.Context, rep *RunReport) error) (RunReport, error) {
	rep := RunReport{RunID: uuid.NewString(), Stage: stage, StartedAt: p.now().UTC()}
	log := p.log.With(slog.String("stage", string(stage)), slog.String("run_id", rep.RunID))
	began := time.Now()

	err := func() error {
		release, err := p.locker.Acquire(ctx, string(stage), p.lockTTL)
		if err != nil {
			return err
		}
		defer release()

		if err := body(ctx, &rep); err != nil {
			return err
		}
		if rep.Output == "" {
			return nil
		}
		return p.manifest.Record(ctx, manifest.Entry{
			RunID:     rep.RunID,
			Stage:     string(stage),
			Path:      rep.Output,
			Rows:      rep.RowsOut,
			Rejected:  rep.Rejected,
			Inputs:    rep.Inputs,
			CreatedAt: rep.StartedAt,
		})
	}()
	rep.Duration = time.Since(began)

	if err != nil {
		p.metrics.Failure(string(stage), rep.Duration)
		p.push(ctx, log)
		log.Error("stage failed", slog.Any("err", err), slog.Int("inputs", len(rep.Inputs)))
		return rep, fmt.Errorf("pipeline: %s: %w", stage, err)
	}

	p.metrics.Success(string(stage), rep.RowsIn, rep.RowsOut, rep.Rejected, rep.Duration, p.now())
	p.push(ctx, log)
	log.Info("stage done",
		slog.String("output", rep.Output),
		slog.Int("inputs", len(rep.Inputs)),
		slog.Int("rows_in", rep.RowsIn),
		slog.Int("rows_out", rep.RowsOut),
		slog.Int("rejected", rep.Rejected),
		slog.Duration("took", rep.Duration))
	return rep, nil
}

// push runs even when the stage was interrupted, so it ignores ctx cancellation.
func (p *Pipeline) push(ctx context.Context, log *slog.Logger) {
	if err := p.pusher.Push(context.WithoutCancel(ctx), p.metrics); err != nil {
		log.Warn("metrics push failed", slog.Any("err", err))
	}
}

// discover returns the upstream files to read, oldest first.
func (p *Pipeline) discover(ctx context.Context, upstream Stage, dir, prefix string) ([]string, error) {
	if p.discovery == DiscoverGlob {
		return storage.Match(ctx, p.backend, dir, prefix+"*")
	}
	entries, err := p.manifest.List(ctx, string(upstream))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	var paths []string
	for _, e := range entries {
		if !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}
