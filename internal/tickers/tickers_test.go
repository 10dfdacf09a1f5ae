package tickers

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trades/internal/redisx"
	"stock-trades/internal/testutil"
)

func TestSymbols(t *testing.T) {
	syms, err := Config{DefaultTickers: []string{"msft", "AAPL"}, ExtraTickers: []string{" aapl ", "NVDA", ""}}.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, syms)

	_, err = Config{}.Symbols()
	assert.True(t, errors.Is(err, ErrNoTickers))
}

func TestAddRemoveExtra(t *testing.T) {
	c := DefaultConfig().AddExtra(ParseList("nvda, META,,amd")...)
	assert.Equal(t, []string{"AMD", "META", "NVDA"}, c.ExtraTickers)

	c = c.RemoveExtra("meta", "AAPL")
	assert.Equal(t, []string{"AMD", "NVDA"}, c.ExtraTickers)
	assert.Equal(t, DefaultTickers, c.DefaultTickers)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config", "tickers.json")
	s := NewFileStore(path)

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	cfg, err := s.AddExtra(ctx, "nvda")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, cfg.ExtraTickers)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	cfg, err = s.RemoveExtra(ctx, "NVDA")
	require.NoError(t, err)
	assert.Empty(t, cfg.ExtraTickers)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestLoadTickersFromFile(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# tech\nnvda\n\nAMD\nnvda\n"), 0o644))
	got, err := LoadTickersFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"AMD", "NVDA"}, got)

	js := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(js, []byte(`["meta", "Orcl"]`), 0o644))
	got, err = LoadTickersFromFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"META", "ORCL"}, got)

	_, err = LoadTickersFromFile(filepath.Join(dir, "list.csv"))
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	c, err := redisx.New(ctx, redisx.ClientConfig{Addr: testutil.Redis(t)})
	require.NoError(t, err)
	defer c.Close()

	s := NewRedisStore(c, "test:tickers")
	require.NoError(t, s.Seed(ctx, DefaultTickers))
	require.NoError(t, s.Seed(ctx, []string{"IGNORED"}))

	cfg, err := s.AddExtra(ctx, "nvda", "amd")
	require.NoError(t, err)
	assert.Equal(t, Normalize(DefaultTickers), cfg.DefaultTickers)
	assert.Equal(t, []string{"AMD", "NVDA"}, cfg.ExtraTickers)

	cfg, err = s.RemoveExtra(ctx, "AMD")
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, cfg.ExtraTickers)

	syms, err := cfg.Symbols()
	require.NoError(t, err)
	assert.Len(t, syms, 6)
}
