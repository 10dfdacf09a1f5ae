package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidTrade is wrapped by Trade.Validate for every malformed row.
var ErrInvalidTrade = errors.New("invalid trade")

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is one executed transaction. Immutable once generated.
type Trade struct {
	EventTime time.Time `json:"event_time" parquet:"event_time"` // UTC
	Symbol    string    `json:"symbol" parquet:"symbol"`
	Price     float64   `json:"price" parquet:"price"`
	Size      int64     `json:"size" parquet:"size"`
	Side      Side      `json:"side" parquet:"side"`
	Venue     string    `json:"venue" parquet:"venue"`
	Source    string    `json:"source" parquet:"source"`
}

// Validate returns nil for a usable trade, otherwise an error wrapping ErrInvalidTrade
// that names the first broken field.
func (t Trade) Validate() error {
	switch {
	case t.EventTime.IsZero():
		return fmt.Errorf("%w: missing event_time", ErrInvalidTrade)
	case t.Symbol == "":
		return fmt.Errorf("%w: empty symbol", ErrInvalidTrade)
	case math.IsNaN(t.Price) || math.IsInf(t.Price, 0):
		return fmt.Errorf("%w: non-finite price %v", ErrInvalidTrade, t.Price)
	case t.Price <= 0:
		return fmt.Errorf("%w: non-positive price %v", ErrInvalidTrade, t.Price)
	case t.Size <= 0:
		return fmt.Errorf("%w: non-positive size %d", ErrInvalidTrade, t.Size)
	case !t.Side.Valid():
		return fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, t.Side)
	}
	return nil
}

// RejectedTrade is a quarantined trade and the reason it was kept out of aggregation.
type RejectedTrade struct {
	EventTime time.Time `json:"event_time" parquet:"event_time"`
	Symbol    string    `json:"symbol" parquet:"symbol"`
	Price     float64   `json:"price" parquet:"price"`
	Size      int64     `json:"size" parquet:"size"`
	Side      Side      `json:"side" parquet:"side"`
	Venue     string    `json:"venue" parquet:"venue"`
	Source    string    `json:"source" parquet:"source"`
	Reason    string    `json:"reason" parquet:"reason"`
}

// Reject builds the quarantine record for t.
func Reject(t Trade, reason error) RejectedTrade {
	return RejectedTrade{
		EventTime: t.EventTime,
		Symbol:    t.Symbol,
		Price:     t.Price,
		Size:      t.Size,
		Side:      t.Side,
		Venue:     t.Venue,
		Source:    t.Source,
		Reason:    reason.Error(),
	}
}
