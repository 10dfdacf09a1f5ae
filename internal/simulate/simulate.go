// Package simulate generates synthetic trade streams: a gaussian random walk per symbol
// with random lot sizes, sides and whole-second gaps.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"stock-trades/internal/model"
)

// ErrNegativeCount is returned when asked for fewer than zero trades.
var ErrNegativeCount = errors.New("simulate: negative trade count")

// Params controls the walk. Zero values are not filled in; start from DefaultParams.
type Params struct {
	BasePrices       map[string]float64
	DefaultBasePrice float64
	StepStdDev       float64
	MinPrice         float64
	LotSizes         []int64
	MinGap           time.Duration // whole seconds
	MaxGap           time.Duration
	Venue            string
	Source           string
}

// DefaultParams returns the reference settings used by the pipeline.
func DefaultParams() Params {
	return Params{
		BasePrices: map[string]float64{
			"AAPL":  180.0,
			"MSFT":  380.0,
			"GOOGL": 140.0,
			"AMZN":  150.0,
			"TSLA":  250.0,
		},
		DefaultBasePrice: 100.0,
		StepStdDev:       0.3,
		MinPrice:         1.0,
		LotSizes:         []int64{10, 25, 50, 100, 250, 500},
		MinGap:           time.Second,
		MaxGap:           15 * time.Second,
		Venue:            "SIM-EX",
		Source:           "simulator",
	}
}

// Validate checks that the params can produce valid trades.
func (p Params) Validate() error {
	switch {
	case p.DefaultBasePrice <= 0:
		return fmt.Errorf("simulate: default base price must be positive, got %v", p.DefaultBasePrice)
	case p.MinPrice <= 0:
		return fmt.Errorf("simulate: min price must be positive, got %v", p.MinPrice)
	case p.StepStdDev < 0:
		return fmt.Errorf("simulate: negative step stddev %v", p.StepStdDev)
	case len(p.LotSizes) == 0:
		return errors.New("simulate: no lot sizes")
	case p.MinGap < time.Second || p.MaxGap < p.MinGap:
		return fmt.Errorf("simulate: bad gap range [%s, %s]", p.MinGap, p.MaxGap)
	}
	for _, s := range p.LotSizes {
		if s <= 0 {
			return fmt.Errorf("simulate: non-positive lot size %d", s)
		}
	}
	return nil
}

// BasePrice returns the starting price for symbol.
func (p Params) BasePrice(symbol string) float64 {
	if v, ok := p.BasePrices[symbol]; ok && v > 0 {
		return v
	}
	return p.DefaultBasePrice
}

// Simulator is not safe for concurrent use; it owns its random source.
type Simulator struct {
	p   Params
	rng *rand.Rand
}

// New creates a Simulator. seed 0 seeds from the clock.
func New(p Params, seed uint64) *Simulator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return NewWithRand(p, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewWithRand creates a Simulator drawing from rng.
func NewWithRand(p Params, rng *rand.Rand) *Simulator {
	return &Simulator{p: p, rng: rng}
}

// Trades returns n trades for symbol. The first is at start; each following trade is
// MinGap..MaxGap seconds after the previous one.
func (s *Simulator) Trades(symbol string, start time.Time, n int) ([]model.Trade, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	out := make([]model.Trade, 0, n)
	price := s.p.BasePrice(symbol)
	ts := start.UTC()
	for i := 0; i < n; i++ {
		if i > 0 {
			ts = ts.Add(s.gap())
		}
		price = math.Max(s.p.MinPrice, price+s.rng.NormFloat64()*s.p.StepStdDev)
		out = append(out, model.Trade{
			EventTime: ts,
			Symbol:    symbol,
			Price:     round2(price),
			Size:      s.p.LotSizes[s.rng.IntN(len(s.p.LotSizes))],
			Side:      s.side(),
			Venue:     s.p.Venue,
			Source:    s.p.Source,
		})
	}
	return out, nil
}

// Batch simulates n trades for every symbol and shuffles them into one batch.
func (s *Simulator) Batch(symbols []string, start time.Time, n int) ([]model.Trade, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	all := make([]model.Trade, 0, n*len(symbols))
	for _, sym := range symbols {
		trades, err := s.Trades(sym, start, n)
		if err != nil {
			return nil, err
		}
		all = append(all, trades...)
	}
	s.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all, nil
}

func (s *Simulator) gap() time.Duration {
	lo, hi := int64(s.p.MinGap/time.Second), int64(s.p.MaxGap/time.Second)
	return time.Duration(lo+s.rng.Int64N(hi-lo+1)) * time.Second
}

func (s *Simulator) side() model.Side {
	if s.rng.IntN(2) == 0 {
		return model.SideBuy
	}
	return model.SideSell
}

func round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}
