// Package bars aggregates trades into fixed-interval OHLCV bars per symbol.
package bars

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-trades/internal/model"
)

// DefaultInterval is the bar width used by the pipeline.
const DefaultInterval = 5 * time.Minute

// ErrNoInput is returned when there is nothing to aggregate.
var ErrNoInput = errors.New("bars: no input trades")

// Aggregator builds bars. The zero value uses DefaultInterval and NumCPU workers.
type Aggregator struct {
	Interval time.Duration
	Workers  int
}

// Result of one aggregation.
type Result struct {
	Bars     []model.Bar           // sorted by (symbol, bar_start_time)
	Rejected []model.RejectedTrade // trades that failed validation, in input order
}

// BucketStart floors t (in UTC) to the interval grid.
func BucketStart(t time.Time, interval time.Duration) time.Time {
	return t.UTC().Truncate(interval)
}

// Aggregate groups trades by symbol and bucket and returns one bar per non-empty bucket.
// Input order only matters for open/close ties on identical event times, where the earlier
// input trade wins the open and the later one the close.
func (a Aggregator) Aggregate(ctx context.Context, trades []model.Trade) (Result, error) {
	if len(trades) == 0 {
		return Result{}, ErrNoInput
	}
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var res Result
	bySymbol := make(map[string][]model.Trade)
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			res.Rejected = append(res.Rejected, model.Reject(t, err))
			continue
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}
	if len(bySymbol) == 0 {
		return res, fmt.Errorf("%w: all %d trades rejected", ErrNoInput, len(trades))
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	perSymbol := make([][]model.Bar, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(a.Workers))
	for i, sym := range symbols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perSymbol[i] = aggregateSymbol(bySymbol[sym], interval)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("bars: aggregate: %w", err)
	}

	for _, bs := range perSymbol {
		res.Bars = append(res.Bars, bs...)
	}
	return res, nil
}

// aggregateSymbol expects trades of one symbol in ingestion order.
func aggregateSymbol(trades []model.Trade, interval time.Duration) []model.Bar {
	slices.SortStableFunc(trades, func(x, y model.Trade) int {
		return x.EventTime.Compare(y.EventTime)
	})

	var out []model.Bar
	var cur *model.Bar
	for _, t := range trades {
		start := BucketStart(t.EventTime, interval)
		if cur == nil || !cur.BarStartTime.Equal(start) {
			out = append(out, model.Bar{
				Symbol:       t.Symbol,
				BarStartTime: start,
				Day:          model.DayOf(start),
				OpenPrice:    t.Price,
				HighPrice:    t.Price,
				LowPrice:     t.Price,
			})
			cur = &out[len(out)-1]
		}
		cur.HighPrice = max(cur.HighPrice, t.Price)
		cur.LowPrice = min(cur.LowPrice, t.Price)
		cur.ClosePrice = t.Price
		cur.Volume += t.Size
		cur.NumTrades++
	}
	return out
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

