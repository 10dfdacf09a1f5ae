// Package tickers manages the symbol universe: a fixed default list plus user-managed extras.
package tickers

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// ErrNoTickers is returned when the configured universe is empty.
var ErrNoTickers = errors.New("tickers: no tickers configured")

// DefaultTickers is the universe written when no configuration exists yet.
var DefaultTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}

// Config is the ticker configuration document.
type Config struct {
	DefaultTickers []string `json:"default_tickers"`
	ExtraTickers   []string `json:"extra_tickers"`
}

// DefaultConfig returns the initial configuration.
func DefaultConfig() Config {
	return Config{DefaultTickers: slices.Clone(DefaultTickers), ExtraTickers: []string{}}
}

// Symbols returns the union of default and extra tickers, normalized and sorted.
func (c Config) Symbols() ([]string, error) {
	all := Normalize(append(slices.Clone(c.DefaultTickers), c.ExtraTickers...))
	if len(all) == 0 {
		return nil, ErrNoTickers
	}
	return all, nil
}

// AddExtra merges symbols into the extra list.
func (c Config) AddExtra(symbols ...string) Config {
	c.ExtraTickers = Normalize(append(slices.Clone(c.ExtraTickers), symbols...))
	return c
}

// RemoveExtra drops symbols from the extra list. Defaults are never removed.
func (c Config) RemoveExtra(symbols ...string) Config {
	drop := make(map[string]bool, len(symbols))
	for _, s := range Normalize(symbols) {
		drop[s] = true
	}
	kept := make([]string, 0, len(c.ExtraTickers))
	for _, s := range Normalize(c.ExtraTickers) {
		if !drop[s] {
			kept = append(kept, s)
		}
	}
	c.ExtraTickers = kept
	return c
}

// Normalize trims, uppercases, drops empties and duplicates, and sorts.
func Normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// ParseList splits a comma or whitespace separated list such as "nvda, META amd".
func ParseList(s string) []string {
	return Normalize(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}))
}

// Store persists the ticker configuration.
type Store interface {
	Load(ctx context.Context) (Config, error)
	AddExtra(ctx context.Context, symbols ...string) (Config, error)
	RemoveExtra(ctx context.Context, symbols ...string) (Config, error)
}
