package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stock-trades/internal/bars"
	"stock-trades/internal/features"
	"stock-trades/internal/model"
)

// SimulateOptions size one simulated batch.
type SimulateOptions struct {
	TradesPerSymbol int
	MinutesBack     time.Duration
}

// DefaultSimulateOptions returns 200 trades per symbol starting 30 minutes ago.
func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{TradesPerSymbol: 200, MinutesBack: 30 * time.Minute}
}

// Simulate generates one batch of trades for every configured ticker and writes it to the
// raw trades directory.
func (p *Pipeline) Simulate(ctx context.Context, opts SimulateOptions) (RunReport, error) {
	return p.run(ctx, StageTrades, func(ctx context.Context, rep *RunReport) error {
		cfg, err := p.tickers.Load(ctx)
		if err != nil {
			return err
		}
		symbols, err := cfg.Symbols()
		if err != nil {
			return err
		}

		start := rep.StartedAt.Add(-opts.MinutesBack)
		p.simMu.Lock()
		trades, err := p.sim.Batch(symbols, start, opts.TradesPerSymbol)
		p.simMu.Unlock()
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			p.log.Warn("empty batch, nothing written", slog.Int("symbols", len(symbols)))
			return nil
		}

		out, err := writeTable(ctx, p, trades, p.layout.TradesDir, tradesPrefix, rep.StartedAt)
		if err != nil {
			return err
		}
		rep.Output, rep.RowsOut = out, len(trades)
		return nil
	})
}

// BuildBars aggregates every raw trades file into bars. Malformed trades are counted as
// rejected and written to the quarantine directory once the bars file is stored.
func (p *Pipeline) BuildBars(ctx context.Context) (RunReport, error) {
	return p.run(ctx, StageBars, func(ctx context.Context, rep *RunReport) error {
		inputs, err := p.discover(ctx, StageTrades, p.layout.TradesDir, tradesPrefix)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("%w: no trade files in %s", ErrNoInput, p.layout.TradesDir)
		}
		rep.Inputs = inputs

		trades, err := readTables[model.Trade](ctx, p.backend, inputs)
		if err != nil {
			return err
		}
		rep.RowsIn = len(trades)

		res, err := p.agg.Aggregate(ctx, trades)
		rep.Rejected = len(res.Rejected)
		if err != nil {
			return noInput(err)
		}

		out, err := writeTable(ctx, p, res.Bars, p.layout.BarsDir, barsPrefix, rep.StartedAt)
		if err != nil {
			return err
		}
		rep.Output, rep.RowsOut = out, len(res.Bars)

		// The quarantine file only exists next to a bars file.
		if len(res.Rejected) > 0 {
			q, err := writeTable(ctx, p, res.Rejected, p.layout.QuarantineDir, quarantinePrefix, rep.StartedAt)
			if err != nil {
				return err
			}
			rep.Quarantine = q
			p.log.Warn("trades quarantined", slog.Int("count", len(res.Rejected)), slog.String("path", q))
		}
		return nil
	})
}

// BuildFeatures turns every bars file into the feature table. Later bar files win over
// earlier ones for the same (symbol, bar_start_time).
func (p *Pipeline) BuildFeatures(ctx context.Context) (RunReport, error) {
	return p.run(ctx, StageFeatures, func(ctx context.Context, rep *RunReport) error {
		inputs, err := p.discover(ctx, StageBars, p.layout.BarsDir, barsPrefix)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("%w: no bar files in %s", ErrNoInput, p.layout.BarsDir)
		}
		rep.Inputs = inputs

		bs, err := readTables[model.Bar](ctx, p.backend, inputs)
		if err != nil {
			return err
		}
		rep.RowsIn = len(bs)

		rows, err := p.builder.Build(ctx, bs)
		if err != nil {
			return noInput(err)
		}

		out, err := writeTable(ctx, p, rows, p.layout.FeaturesDir, featuresPrefix, rep.StartedAt)
		if err != nil {
			return err
		}
		rep.Output, rep.RowsOut = out, len(rows)
		return nil
	})
}

// RunAll runs simulate, bars and features in order and stops at the first failure.
func (p *Pipeline) RunAll(ctx context.Context, opts SimulateOptions) ([]RunReport, error) {
	var reports []RunReport
	steps := []func(context.Context) (RunReport, error){
		func(ctx context.Context) (RunReport, error) { return p.Simulate(ctx, opts) },
		p.BuildBars,
		p.BuildFeatures,
	}
	var err error
	for _, step := range steps {
		var rep RunReport
		rep, err = step(ctx)
		reports = append(reports, rep)
		if err != nil {
			break
		}
	}
	if werr := p.writeLastRun(ctx, reports, err); werr != nil {
		p.log.Warn("last run report not written", slog.Any("err", werr))
	}
	return reports, err
}

// writeTable encodes rows and stores them under a fresh file name in dir.
func writeTable[T any](ctx context.Context, p *Pipeline, rows []T, dir, prefix string, at time.Time) (string, error) {
	data, ext, err := encodeTable(p.format, rows)
	if err != nil {
		return "", err
	}
	out, err := outputPath(ctx, p.backend, dir, prefix, at, ext)
	if err != nil {
		return "", err
	}
	if err := p.backend.Put(ctx, out, data); err != nil {
		return "", err
	}
	return out, nil
}

// noInput tags the transforms' own "no input" errors with ErrNoInput.
func noInput(err error) error {
	if errors.Is(err, bars.ErrNoInput) || errors.Is(err, features.ErrNoInput) {
		return fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	return err
}
