package features

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trades/internal/bars"
	"stock-trades/internal/model"
	"stock-trades/internal/simulate"
)

var t0 = time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC)

func series(sym string, closes ...float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		start := t0.Add(time.Duration(i) * 5 * time.Minute)
		out[i] = model.Bar{
			Symbol: sym, BarStartTime: start, Day: model.DayOf(start),
			OpenPrice: c, HighPrice: c, LowPrice: c, ClosePrice: c, Volume: 10, NumTrades: 1,
		}
	}
	return out
}

func TestBuildKnownValues(t *testing.T) {
	rows, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101, 102, 103, 104, 105))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, t0.Add(15*time.Minute), r.BarStartTime)
	assert.InDelta(t, 103.0/102-1, r.Return1, 1e-12)
	assert.InDelta(t, 101.5, r.MA5, 1e-12)
	assert.InDelta(t, 40, r.RollingVolume5, 1e-12)
	assert.InDelta(t, 104.0/103-1, r.TargetReturn1Ahead, 1e-12)
	assert.True(t, r.TargetDirection1Ahead)
	assert.Nil(t, r.MA20)
	assert.Nil(t, r.RollingVol20)

	r = rows[1]
	require.NotNil(t, r.MA20)
	assert.InDelta(t, 102, *r.MA20, 1e-12)
	assert.InDelta(t, 50, r.RollingVolume5, 1e-12)
	assert.Nil(t, r.RollingVol20)
}

func TestBuildShortHistory(t *testing.T) {
	rows, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildNoInput(t *testing.T) {
	_, err := Builder{}.Build(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoInput))
}

func TestBuildCausal(t *testing.T) {
	trades, err := simulate.New(simulate.DefaultParams(), 21).Trades("MSFT", t0, 2000)
	require.NoError(t, err)
	res, err := bars.Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	all := res.Bars
	require.Greater(t, len(all), 30)

	full, err := Builder{}.Build(context.Background(), all)
	require.NoError(t, err)
	require.NotEmpty(t, full)

	index := map[time.Time]int{}
	for i, b := range all {
		index[b.BarStartTime] = i
	}
	for _, row := range full {
		j := index[row.BarStartTime]
		// the row at bar j can only see bars up to j, and the label bar j+1
		prefix, err := Builder{}.Build(context.Background(), append([]model.Bar(nil), all[:j+2]...))
		require.NoError(t, err)
		require.NotEmpty(t, prefix)
		assert.Equal(t, row, prefix[len(prefix)-1])
	}
}

func TestBuildLabelReadsNextBar(t *testing.T) {
	up, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101, 102, 103, 110))
	require.NoError(t, err)
	down, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101, 102, 103, 90))
	require.NoError(t, err)
	require.Len(t, up, 1)
	require.Len(t, down, 1)

	assert.True(t, up[0].TargetDirection1Ahead)
	assert.False(t, down[0].TargetDirection1Ahead)
	up[0].TargetReturn1Ahead, up[0].TargetDirection1Ahead = 0, false
	down[0].TargetReturn1Ahead, down[0].TargetDirection1Ahead = 0, false
	assert.Equal(t, up[0], down[0], "features must not depend on the next bar")
}

func TestBuildSymbolIsolation(t *testing.T) {
	good := series("AAPL", 100, 101, 102, 103, 104, 105, 106)
	alone, err := Builder{}.Build(context.Background(), good)
	require.NoError(t, err)

	broken := series("BAD", 0, 0, 0, 0, 0, 0, 0)
	mixed, err := Builder{Workers: 2}.Build(context.Background(), append(append([]model.Bar(nil), broken...), good...))
	require.NoError(t, err)
	assert.Equal(t, alone, mixed)
}

func TestBuildDropsInfinite(t *testing.T) {
	rows, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101, 102, 103, 0, 104, 105, 106, 107, 108, 109))
	require.NoError(t, err)
	for _, r := range rows {
		for _, v := range []float64{r.Return1, r.RollingVol5, r.RollingVolume5, r.MA5, r.TargetReturn1Ahead} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%+v", r)
		}
		assert.NotEqual(t, t0.Add(20*time.Minute), r.BarStartTime, "zero close has an undefined label")
		assert.NotEqual(t, t0.Add(25*time.Minute), r.BarStartTime, "return from a zero close is undefined")
	}
}

func TestInfiniteReturnUndefinesVolatility(t *testing.T) {
	// the return into 104 divides by the zero close and spoils the next five vol_5 windows
	rows, err := Builder{}.Build(context.Background(), series("AAPL", 100, 101, 102, 103, 0, 104, 105, 106, 107, 108, 109))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, t0.Add(15*time.Minute), rows[0].BarStartTime)
	assert.InDelta(t, -1.0, rows[0].TargetReturn1Ahead, 1e-12)
}

func TestBuildCollapsesDuplicates(t *testing.T) {
	first := series("AAPL", 100, 101, 102, 103, 104, 105)
	rerun := series("AAPL", 100, 101, 102, 103, 104, 105)
	rerun[3].ClosePrice = 200

	rows, err := Builder{}.Build(context.Background(), append(first, rerun...))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 200.0, rows[0].ClosePrice)

	once, err := Builder{}.Build(context.Background(), rerun)
	require.NoError(t, err)
	assert.Equal(t, once, rows)
}

func TestBuildDeterministic(t *testing.T) {
	trades, err := simulate.New(simulate.DefaultParams(), 8).Batch([]string{"AAPL", "AMZN", "TSLA", "GOOGL"}, t0, 1000)
	require.NoError(t, err)
	res, err := bars.Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)

	a, err := Builder{Workers: 1}.Build(context.Background(), append([]model.Bar(nil), res.Bars...))
	require.NoError(t, err)
	b, err := Builder{Workers: 8}.Build(context.Background(), append([]model.Bar(nil), res.Bars...))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
