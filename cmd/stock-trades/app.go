package main

import (
	"log/slog"

	"stock-trades/internal/app"
	"stock-trades/internal/pipeline"
	"stock-trades/internal/tickers"
)

// App holds application dependencies built by Wire.
type App struct {
	Config   *app.Config
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline
	Tickers  tickers.Store
}
