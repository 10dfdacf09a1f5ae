package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"stock-trades/internal/storage"
)

// TimestampLayout stamps every output file name (UTC, second resolution).
const TimestampLayout = "20060102T150405Z"

// Layout is where each table lives on the backend.
type Layout struct {
	TradesDir     string
	BarsDir       string
	FeaturesDir   string
	QuarantineDir string
}

func DefaultLayout() Layout {
	return Layout{
		TradesDir:     "raw/trades",
		BarsDir:       "curated/bars_5m",
		FeaturesDir:   "curated/ml_features",
		QuarantineDir: "raw/quarantine",
	}
}

// File name prefixes. Inputs are discovered with <prefix>*.
const (
	tradesPrefix     = "trades_batch_"
	barsPrefix       = "bars_5m_"
	featuresPrefix   = "ml_features_5m_"
	quarantinePrefix = "trades_rejected_"
)

// outputPath returns dir/<prefix><ts>.<ext>, adding a _N suffix when a file with that name
// already exists (two runs within the same second).
func outputPath(ctx context.Context, b storage.Backend, dir, prefix string, at time.Time, ext string) (string, error) {
	base := prefix + at.UTC().Format(TimestampLayout)
	existing, err := storage.Match(ctx, b, dir, base+"*")
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[strings.TrimSuffix(path.Base(p), path.Ext(p))] = true
	}
	name := base
	for n := 1; taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	return path.Join(dir, name+"."+ext), nil
}
