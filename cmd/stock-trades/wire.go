//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"stock-trades/internal/app"
)

// InitializeApp builds App via Wire. Caller must call cleanup when done.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideBackend,
		app.ProvideRedis,
		app.ProvideTickerStore,
		app.ProvideLocker,
		app.ProvideManifest,
		app.ProvideMetrics,
		app.ProvidePusher,
		app.ProvideSimulator,
		app.ProvidePipeline,
		wire.Struct(new(App), "Config", "Logger", "Pipeline", "Tickers"),
	)
	return nil, nil, nil
}
