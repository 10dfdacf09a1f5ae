// Package features turns bars into the supervised-learning table: causal rolling features
// per symbol plus one-bar-ahead labels.
package features

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"stock-trades/internal/model"
	"stock-trades/internal/slogx"
)

// ErrNoInput is returned when there are no bars to build from.
var ErrNoInput = errors.New("features: no input bars")

// Window sizes and minimum observations.
const (
	shortWindow = 5
	shortMinObs = 3
	longWindow  = 20
	longMinObs  = 5
)

// Builder computes feature rows. The zero value is usable.
type Builder struct {
	Workers int
	Logger  *slog.Logger
}

type seriesKey struct {
	symbol string
	start  int64
}

// Build returns the feature rows of every symbol, grouped by symbol in ascending order and
// by bar_start_time within a symbol. Callers must not rely on that order.
//
// Bars with the same (symbol, bar_start_time) are collapsed and the later one in bars wins.
// A symbol whose computation fails contributes no rows and is logged.
func (b Builder) Build(ctx context.Context, bars []model.Bar) ([]model.FeatureRow, error) {
	if len(bars) == 0 {
		return nil, ErrNoInput
	}
	log := slogx.Or(b.Logger)

	latest := make(map[seriesKey]int, len(bars))
	for i, bar := range bars {
		latest[seriesKey{bar.Symbol, bar.BarStartTime.UnixNano()}] = i
	}
	series := make(map[string][]model.Bar)
	for i, bar := range bars {
		if latest[seriesKey{bar.Symbol, bar.BarStartTime.UnixNano()}] != i {
			continue
		}
		series[bar.Symbol] = append(series[bar.Symbol], bar)
	}
	if dup := len(bars) - len(latest); dup > 0 {
		log.Debug("collapsed duplicate bars", slog.Int("duplicates", dup))
	}

	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	perSymbol := make([][]model.FeatureRow, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(b.Workers))
	for i, sym := range symbols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := buildSymbol(series[sym])
			if err != nil {
				log.Warn("symbol skipped", slog.String("symbol", sym), slog.Any("err", err))
				return nil
			}
			perSymbol[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("features: build: %w", err)
	}

	var out []model.FeatureRow
	for _, rows := range perSymbol {
		out = append(out, rows...)
	}
	return out, nil
}

// buildSymbol computes one symbol's rows. A panic is turned into an error so it stays
// local to the symbol.
func buildSymbol(bars []model.Bar) (rows []model.FeatureRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("features: %s: %v", symbolOf(bars), r)
		}
	}()

	slices.SortFunc(bars, func(x, y model.Bar) int {
		return x.BarStartTime.Compare(y.BarStartTime)
	})
	cols := computeColumns(bars)
	for i, bar := range bars {
		if !cols.complete(i) {
			continue
		}
		start := bar.BarStartTime.UTC()
		rows = append(rows, model.FeatureRow{
			Symbol:                bar.Symbol,
			BarStartTime:          start,
			Day:                   model.DayOf(start),
			ClosePrice:            bar.ClosePrice,
			Volume:                bar.Volume,
			NumTrades:             bar.NumTrades,
			Return1:               cols.return1[i],
			RollingVol5:           cols.vol5[i],
			RollingVol20:          optional(cols.vol20[i]),
			RollingVolume5:        cols.volume5[i],
			MA5:                   cols.ma5[i],
			MA20:                  optional(cols.ma20[i]),
			TargetReturn1Ahead:    cols.target[i],
			TargetDirection1Ahead: cols.target[i] > 0,
		})
	}
	return rows, nil
}

type columns struct {
	return1, vol5, vol20, volume5, ma5, ma20 []float64
	target                                   []float64
}

// computeColumns derives the features from bars[0..i] only and the label from bars[i+1].
func computeColumns(bars []model.Bar) columns {
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.ClosePrice
		volumes[i] = float64(b.Volume)
	}
	ret := pctChange(closes)
	c := columns{
		return1: ret,
		vol5:    rollingStd(ret, shortWindow, shortMinObs),
		vol20:   rollingStd(ret, longWindow, longMinObs),
		volume5: rollingSum(volumes, shortWindow, 1),
		ma5:     rollingMean(closes, shortWindow, shortMinObs),
		ma20:    rollingMean(closes, longWindow, longMinObs),
		target:  forwardReturn(closes),
	}
	for _, col := range [][]float64{c.return1, c.vol5, c.vol20, c.volume5, c.ma5, c.ma20} {
		for i := range col {
			col[i] = finite(col[i])
		}
	}
	return c
}

// forwardReturn is the label: x[i+1]/x[i] - 1, NaN for the last position.
func forwardReturn(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == len(xs)-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = finite(xs[i+1]/xs[i] - 1)
	}
	return out
}

// complete reports whether every required column of row i is defined.
func (c columns) complete(i int) bool {
	for _, v := range []float64{c.return1[i], c.vol5[i], c.volume5[i], c.ma5[i], c.target[i]} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func symbolOf(bars []model.Bar) string {
	if len(bars) == 0 {
		return ""
	}
	return bars[0].Symbol
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

