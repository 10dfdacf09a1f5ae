package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"stock-trades/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info", "text"))
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&simulateCmd{}, "pipeline")
	subcommands.Register(&barsCmd{}, "pipeline")
	subcommands.Register(&featuresCmd{}, "pipeline")
	subcommands.Register(&runCmd{}, "pipeline")
	subcommands.Register(&tickersCmd{}, "config")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// withApp builds the App, installs its logger and runs fn.
func withApp(ctx context.Context, fn func(context.Context, *App) error) subcommands.ExitStatus {
	a, cleanup, err := InitializeApp(ctx)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return subcommands.ExitFailure
	}
	defer cleanup()
	slog.SetDefault(a.Logger)

	if err := fn(ctx, a); err != nil {
		slog.Error("command failed", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
