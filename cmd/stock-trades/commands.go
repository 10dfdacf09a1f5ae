package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"stock-trades/internal/pipeline"
	"stock-trades/internal/tickers"
)

// simFlags are shared by simulate and run. Negative means "use config".
type simFlags struct {
	tradesPerSymbol int
	minutesBack     int
}

func (s *simFlags) register(f *flag.FlagSet) {
	f.IntVar(&s.tradesPerSymbol, "trades-per-symbol", -1, "trades to simulate per symbol (default from config, 200)")
	f.IntVar(&s.minutesBack, "minutes-back", -1, "start the batch this many minutes ago (default from config, 30)")
}

func (s *simFlags) options(a *App) pipeline.SimulateOptions {
	opts := a.Config.SimulateOptions()
	if s.tradesPerSymbol >= 0 {
		opts.TradesPerSymbol = s.tradesPerSymbol
	}
	if s.minutesBack >= 0 {
		opts.MinutesBack = time.Duration(s.minutesBack) * time.Minute
	}
	return opts
}

type simulateCmd struct{ sim simFlags }

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "generate one batch of synthetic trades" }
func (*simulateCmd) Usage() string {
	return "simulate [-trades-per-symbol N] [-minutes-back M]:\n  Write raw/trades/trades_batch_<ts> for every configured ticker.\n"
}
func (c *simulateCmd) SetFlags(f *flag.FlagSet) { c.sim.register(f) }

func (c *simulateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *App) error {
		rep, err := a.Pipeline.Simulate(ctx, c.sim.options(a))
		if err == nil {
			fmt.Println(rep.Output)
		}
		return err
	})
}

type barsCmd struct{}

func (*barsCmd) Name() string           { return "bars" }
func (*barsCmd) Synopsis() string       { return "aggregate all raw trades into 5-minute OHLCV bars" }
func (*barsCmd) Usage() string          { return "bars:\n  Write curated/bars_5m/bars_5m_<ts>.\n" }
func (*barsCmd) SetFlags(*flag.FlagSet) {}

func (*barsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *App) error {
		rep, err := a.Pipeline.BuildBars(ctx)
		if err == nil {
			fmt.Println(rep.Output)
		}
		return err
	})
}

type featuresCmd struct{}

func (*featuresCmd) Name() string           { return "features" }
func (*featuresCmd) Synopsis() string       { return "build ML features and labels from all bars" }
func (*featuresCmd) Usage() string          { return "features:\n  Write curated/ml_features/ml_features_5m_<ts>.\n" }
func (*featuresCmd) SetFlags(*flag.FlagSet) {}

func (*featuresCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *App) error {
		rep, err := a.Pipeline.BuildFeatures(ctx)
		if err == nil {
			fmt.Println(rep.Output)
		}
		return err
	})
}

type runCmd struct{ sim simFlags }

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "simulate, bars and features in order" }
func (*runCmd) Usage() string {
	return "run [-trades-per-symbol N] [-minutes-back M]:\n  Run every stage; stop at the first failure.\n"
}
func (c *runCmd) SetFlags(f *flag.FlagSet) { c.sim.register(f) }

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctx context.Context, a *App) error {
		reports, err := a.Pipeline.RunAll(ctx, c.sim.options(a))
		for _, r := range reports {
			if r.Output != "" {
				fmt.Printf("%s\t%s\t%d rows\n", r.Stage, r.Output, r.RowsOut)
			}
		}
		return err
	})
}

type tickersCmd struct{}

func (*tickersCmd) Name() string     { return "tickers" }
func (*tickersCmd) Synopsis() string { return "show or edit the ticker universe" }
func (*tickersCmd) Usage() string {
	return `tickers list
tickers add SYM[,SYM...]
tickers remove SYM[,SYM...]
tickers import FILE (.txt or .json)
  Default tickers are always included; add/remove only touch the extra list.
`
}
func (*tickersCmd) SetFlags(*flag.FlagSet) {}

func (c *tickersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	action, rest := args[0], args[1:]
	switch action {
	case "list":
	case "add", "remove", "import":
		if len(rest) == 0 {
			fmt.Fprint(os.Stderr, c.Usage())
			return subcommands.ExitUsageError
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown tickers action %q\n", action)
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(ctx context.Context, a *App) error {
		var (
			cfg tickers.Config
			err error
		)
		switch action {
		case "list":
			cfg, err = a.Tickers.Load(ctx)
		case "add":
			cfg, err = a.Tickers.AddExtra(ctx, tickers.ParseList(strings.Join(rest, ","))...)
		case "remove":
			cfg, err = a.Tickers.RemoveExtra(ctx, tickers.ParseList(strings.Join(rest, ","))...)
		case "import":
			var list []string
			if list, err = tickers.LoadTickersFromFile(rest[0]); err == nil {
				cfg, err = a.Tickers.AddExtra(ctx, list...)
			}
		}
		if err != nil {
			return err
		}
		fmt.Printf("default: %s\n", strings.Join(tickers.Normalize(cfg.DefaultTickers), ", "))
		fmt.Printf("extra:   %s\n", strings.Join(cfg.ExtraTickers, ", "))
		return nil
	})
}
