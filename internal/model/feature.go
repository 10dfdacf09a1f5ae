package model

import "time"

// FeatureRow is one (symbol, bar_start_time) of the supervised-learning table.
//
// Everything up to MA20 is computed from the current and earlier bars of the same symbol.
// The Target* fields are labels read from the next bar and must never be used as inputs.
// RollingVol20 and MA20 are nil when the 20-bar window has too few observations.
type FeatureRow struct {
	Symbol         string    `json:"symbol" parquet:"symbol"`
	BarStartTime   time.Time `json:"bar_start_time" parquet:"bar_start_time"`
	Day            string    `json:"day" parquet:"day"`
	ClosePrice     float64   `json:"close_price" parquet:"close_price"`
	Volume         int64     `json:"volume" parquet:"volume"`
	NumTrades      int64     `json:"num_trades" parquet:"num_trades"`
	Return1        float64   `json:"return_1" parquet:"return_1"`
	RollingVol5    float64   `json:"rolling_vol_5" parquet:"rolling_vol_5"`
	RollingVol20   *float64  `json:"rolling_vol_20" parquet:"rolling_vol_20,optional"`
	RollingVolume5 float64   `json:"rolling_volume_5" parquet:"rolling_volume_5"`
	MA5            float64   `json:"ma_5" parquet:"ma_5"`
	MA20           *float64  `json:"ma_20" parquet:"ma_20,optional"`

	TargetReturn1Ahead    float64 `json:"target_return_1_ahead" parquet:"target_return_1_ahead"`
	TargetDirection1Ahead bool    `json:"target_direction_1_ahead" parquet:"target_direction_1_ahead"`
}

// FeatureColumns are the model inputs of a FeatureRow.
var FeatureColumns = []string{
	"return_1", "rolling_vol_5", "rolling_vol_20", "rolling_volume_5", "ma_5", "ma_20",
}

// LabelColumns are the forward-looking targets of a FeatureRow.
var LabelColumns = []string{"target_return_1_ahead", "target_direction_1_ahead"}
