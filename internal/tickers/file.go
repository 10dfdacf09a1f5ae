package tickers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/segmentio/encoding/json"
)

// DefaultPath is where the ticker configuration lives by default.
const DefaultPath = "config/tickers.json"

// FileStore keeps the configuration in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Load reads the file. A missing or malformed file is an error.
func (s *FileStore) Load(_ context.Context) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) AddExtra(_ context.Context, symbols ...string) (Config, error) {
	return s.update(func(c Config) Config { return c.AddExtra(symbols...) })
}

func (s *FileStore) RemoveExtra(_ context.Context, symbols ...string) (Config, error) {
	return s.update(func(c Config) Config { return c.RemoveExtra(symbols...) })
}

// update applies fn to the current config, starting from DefaultConfig when the file does
// not exist yet.
func (s *FileStore) update(fn func(Config) Config) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg = fn(cfg)
	if err := s.write(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s *FileStore) read() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("tickers: read %s: %w", s.path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("tickers: parse %s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *FileStore) write(cfg Config) error {
	if cfg.DefaultTickers == nil {
		cfg.DefaultTickers = []string{}
	}
	if cfg.ExtraTickers == nil {
		cfg.ExtraTickers = []string{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tickers: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tickers-*.json")
	if err != nil {
		return fmt.Errorf("tickers: write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("tickers: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tickers: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("tickers: write %s: %w", s.path, err)
	}
	return nil
}

// LoadTickersFromFile reads a list of tickers from a file.
// Supported formats:
//   - .txt  : one ticker per line, '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadTickersFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tickers: open %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("tickers: read %s: %w", path, err)
	}

	var list []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &list); err != nil {
			return nil, fmt.Errorf("tickers: parse %s: %w", path, err)
		}
	case ".txt":
		list = parseTickersFromText(string(content))
	default:
		return nil, fmt.Errorf("tickers: unsupported file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	out := Normalize(list)
	slog.Debug("loaded tickers from file", "count", len(out), "path", path)
	return out, nil
}

// parseTickersFromText keeps every non-empty, non-comment line.
func parseTickersFromText(s string) []string {
	var list []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			list = append(list, line)
		}
	}
	return list
}

var _ Store = (*FileStore)(nil)
