package model

import "time"

// DayLayout formats Bar.Day.
const DayLayout = "2006-01-02"

// Bar is the OHLCV aggregate of one symbol over [BarStartTime, BarStartTime+interval).
// Buckets without trades have no Bar.
type Bar struct {
	Symbol       string    `json:"symbol" parquet:"symbol"`
	BarStartTime time.Time `json:"bar_start_time" parquet:"bar_start_time"` // UTC, aligned to the interval
	Day          string    `json:"day" parquet:"day"`                       // bar_start_time date, for partitioning
	OpenPrice    float64   `json:"open_price" parquet:"open_price"`
	HighPrice    float64   `json:"high_price" parquet:"high_price"`
	LowPrice     float64   `json:"low_price" parquet:"low_price"`
	ClosePrice   float64   `json:"close_price" parquet:"close_price"`
	Volume       int64     `json:"volume" parquet:"volume"`
	NumTrades    int64     `json:"num_trades" parquet:"num_trades"`
}

// Valid checks low <= open, close <= high for a non-empty bar.
func (b Bar) Valid() bool {
	if b.NumTrades < 1 {
		return false
	}
	return b.LowPrice <= b.OpenPrice && b.LowPrice <= b.ClosePrice &&
		b.OpenPrice <= b.HighPrice && b.ClosePrice <= b.HighPrice
}

// DayOf returns the partition day of t.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
