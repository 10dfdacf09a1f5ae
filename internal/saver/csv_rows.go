package saver

import (
	"slices"
	"strconv"

	"stock-trades/internal/model"
)

// csvMapperFor returns the column mapping for T. Only the pipeline tables have one.
func csvMapperFor[T any]() (csvMapper[T], bool) {
	var zero T
	var m any
	switch any(zero).(type) {
	case model.Trade:
		m = tradeCSV
	case model.RejectedTrade:
		m = rejectedCSV
	case model.Bar:
		m = barCSV
	case model.FeatureRow:
		m = featureCSV
	default:
		return csvMapper[T]{}, false
	}
	return m.(csvMapper[T]), true
}

var tradeCSV = csvMapper[model.Trade]{
	header: []string{"event_time", "symbol", "price", "size", "side", "venue", "source"},
	encode: func(t model.Trade) []string {
		return []string{
			timeStr(t.EventTime), t.Symbol, floatStr(t.Price),
			strconv.FormatInt(t.Size, 10), string(t.Side), t.Venue, t.Source,
		}
	},
	decode: func(rec []string) (model.Trade, error) {
		c := cells{rec: rec}
		t := model.Trade{
			EventTime: c.time(0),
			Symbol:    c.str(1),
			Price:     c.float(2),
			Size:      c.int(3),
			Side:      model.Side(c.str(4)),
			Venue:     c.str(5),
			Source:    c.str(6),
		}
		return t, c.err
	},
}

var rejectedCSV = csvMapper[model.RejectedTrade]{
	header: []string{"event_time", "symbol", "price", "size", "side", "venue", "source", "reason"},
	encode: func(r model.RejectedTrade) []string {
		return []string{
			timeStr(r.EventTime), r.Symbol, floatStr(r.Price),
			strconv.FormatInt(r.Size, 10), string(r.Side), r.Venue, r.Source, r.Reason,
		}
	},
	decode: func(rec []string) (model.RejectedTrade, error) {
		c := cells{rec: rec}
		r := model.RejectedTrade{
			Symbol: c.str(1),
			Side:   model.Side(c.str(4)),
			Venue:  c.str(5),
			Source: c.str(6),
			Reason: c.str(7),
		}
		// Quarantined rows may carry the very values that got them rejected.
		if rec[0] != "" {
			r.EventTime = c.time(0)
		}
		if rec[2] != "" {
			r.Price = c.float(2)
		}
		if rec[3] != "" {
			r.Size = c.int(3)
		}
		return r, c.err
	},
}

var barCSV = csvMapper[model.Bar]{
	header: []string{
		"symbol", "bar_start_time", "day", "open_price", "high_price", "low_price",
		"close_price", "volume", "num_trades",
	},
	encode: func(b model.Bar) []string {
		return []string{
			b.Symbol, timeStr(b.BarStartTime), b.Day,
			floatStr(b.OpenPrice), floatStr(b.HighPrice), floatStr(b.LowPrice), floatStr(b.ClosePrice),
			strconv.FormatInt(b.Volume, 10), strconv.FormatInt(b.NumTrades, 10),
		}
	},
	decode: func(rec []string) (model.Bar, error) {
		c := cells{rec: rec}
		b := model.Bar{
			Symbol:       c.str(0),
			BarStartTime: c.time(1),
			Day:          c.str(2),
			OpenPrice:    c.float(3),
			HighPrice:    c.float(4),
			LowPrice:     c.float(5),
			ClosePrice:   c.float(6),
			Volume:       c.int(7),
			NumTrades:    c.int(8),
		}
		return b, c.err
	},
}

var featureCSV = csvMapper[model.FeatureRow]{
	header: slices.Concat(
		[]string{"symbol", "bar_start_time", "day", "close_price", "volume", "num_trades"},
		model.FeatureColumns,
		model.LabelColumns,
	),
	encode: func(f model.FeatureRow) []string {
		return []string{
			f.Symbol, timeStr(f.BarStartTime), f.Day, floatStr(f.ClosePrice),
			strconv.FormatInt(f.Volume, 10), strconv.FormatInt(f.NumTrades, 10),
			floatStr(f.Return1), floatStr(f.RollingVol5), optFloatStr(f.RollingVol20),
			floatStr(f.RollingVolume5), floatStr(f.MA5), optFloatStr(f.MA20),
			floatStr(f.TargetReturn1Ahead), strconv.FormatBool(f.TargetDirection1Ahead),
		}
	},
	decode: func(rec []string) (model.FeatureRow, error) {
		c := cells{rec: rec}
		f := model.FeatureRow{
			Symbol:                c.str(0),
			BarStartTime:          c.time(1),
			Day:                   c.str(2),
			ClosePrice:            c.float(3),
			Volume:                c.int(4),
			NumTrades:             c.int(5),
			Return1:               c.float(6),
			RollingVol5:           c.float(7),
			RollingVol20:          c.optFloat(8),
			RollingVolume5:        c.float(9),
			MA5:                   c.float(10),
			MA20:                  c.optFloat(11),
			TargetReturn1Ahead:    c.float(12),
			TargetDirection1Ahead: c.bool(13),
		}
		return f, c.err
	},
}
