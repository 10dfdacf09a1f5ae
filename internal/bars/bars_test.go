package bars

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trades/internal/model"
	"stock-trades/internal/simulate"
)

var t0 = time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC)

func trade(sym string, at time.Time, price float64, size int64) model.Trade {
	return model.Trade{EventTime: at, Symbol: sym, Price: price, Size: size, Side: model.SideBuy,
		Venue: "SIM-EX", Source: "simulator"}
}

func TestAggregateSingleBucket(t *testing.T) {
	trades := []model.Trade{
		trade("AAPL", t0.Add(4*time.Minute), 9, 50), // out of order on purpose
		trade("AAPL", t0.Add(1*time.Minute), 10, 100),
		trade("AAPL", t0.Add(3*time.Minute), 12, 25),
	}
	res, err := Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, res.Bars, 1)

	b := res.Bars[0]
	assert.Equal(t, model.Bar{
		Symbol: "AAPL", BarStartTime: t0, Day: "2025-11-03",
		OpenPrice: 10, HighPrice: 12, LowPrice: 9, ClosePrice: 9, Volume: 175, NumTrades: 3,
	}, b)
	assert.Empty(t, res.Rejected)
}

func TestAggregateBoundary(t *testing.T) {
	trades := []model.Trade{
		trade("AAPL", t0.Add(5*time.Minute-time.Nanosecond), 10, 10),
		trade("AAPL", t0.Add(5*time.Minute), 11, 10),
	}
	res, err := Aggregator{Interval: 5 * time.Minute}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, res.Bars, 2)
	assert.Equal(t, t0, res.Bars[0].BarStartTime)
	assert.Equal(t, t0.Add(5*time.Minute), res.Bars[1].BarStartTime)
	assert.EqualValues(t, 1, res.Bars[1].NumTrades)
}

func TestAggregateNoEmptyBuckets(t *testing.T) {
	trades := []model.Trade{
		trade("MSFT", t0, 300, 10),
		trade("MSFT", t0.Add(time.Hour), 301, 10),
	}
	res, err := Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	assert.Len(t, res.Bars, 2)
}

func TestAggregatePermutationInvariant(t *testing.T) {
	trades, err := simulate.New(simulate.DefaultParams(), 11).Batch([]string{"AAPL", "MSFT", "TSLA"}, t0, 300)
	require.NoError(t, err)
	// distinct timestamps per symbol make the result independent of input order
	want, err := Aggregator{Workers: 1}.Aggregate(context.Background(), trades)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 5; i++ {
		shuffled := append([]model.Trade(nil), trades...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Aggregator{Workers: 4}.Aggregate(context.Background(), shuffled)
		require.NoError(t, err)
		assert.Equal(t, want.Bars, got.Bars)
	}

	var total int64
	for _, b := range want.Bars {
		assert.True(t, b.Valid(), "%+v", b)
		assert.Equal(t, b.BarStartTime, BucketStart(b.BarStartTime, DefaultInterval))
		total += b.NumTrades
	}
	assert.EqualValues(t, len(trades), total)
}

func TestAggregateTiesKeepIngestionOrder(t *testing.T) {
	trades := []model.Trade{
		trade("AAPL", t0, 10, 10),
		trade("AAPL", t0, 11, 10),
		trade("AAPL", t0, 12, 10),
	}
	res, err := Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Bars[0].OpenPrice)
	assert.Equal(t, 12.0, res.Bars[0].ClosePrice)
}

func TestAggregateSortedOutput(t *testing.T) {
	trades := []model.Trade{
		trade("TSLA", t0.Add(10*time.Minute), 250, 10),
		trade("AAPL", t0.Add(10*time.Minute), 180, 10),
		trade("TSLA", t0, 249, 10),
		trade("AAPL", t0, 179, 10),
	}
	res, err := Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, res.Bars, 4)
	assert.Equal(t, []string{"AAPL", "AAPL", "TSLA", "TSLA"},
		[]string{res.Bars[0].Symbol, res.Bars[1].Symbol, res.Bars[2].Symbol, res.Bars[3].Symbol})
	assert.True(t, res.Bars[0].BarStartTime.Before(res.Bars[1].BarStartTime))
}

func TestAggregateRejectsMalformed(t *testing.T) {
	bad := trade("AAPL", t0, -1, 10)
	trades := []model.Trade{trade("AAPL", t0, 10, 10), bad, trade("", t0, 10, 10)}

	res, err := Aggregator{}.Aggregate(context.Background(), trades)
	require.NoError(t, err)
	require.Len(t, res.Bars, 1)
	assert.EqualValues(t, 1, res.Bars[0].NumTrades)
	require.Len(t, res.Rejected, 2)
	assert.Contains(t, res.Rejected[0].Reason, "non-positive price")
}

func TestAggregateNoInput(t *testing.T) {
	_, err := Aggregator{}.Aggregate(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoInput))

	res, err := Aggregator{}.Aggregate(context.Background(), []model.Trade{trade("AAPL", t0, 10, 0)})
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Len(t, res.Rejected, 1)
}

func TestAggregateNonUTCInput(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	res, err := Aggregator{}.Aggregate(context.Background(), []model.Trade{trade("AAPL", t0.In(ny).Add(2*time.Minute), 10, 10)})
	require.NoError(t, err)
	assert.Equal(t, t0, res.Bars[0].BarStartTime)
	assert.Equal(t, time.UTC, res.Bars[0].BarStartTime.Location())
}

func BenchmarkAggregate(b *testing.B) {
	trades, err := simulate.New(simulate.DefaultParams(), 1).Batch([]string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}, t0, 2000)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (Aggregator{}).Aggregate(context.Background(), trades); err != nil {
			b.Fatal(err)
		}
	}
}
