package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const tmpPrefix = ".tmp-"

// Local stores objects as files under a root directory.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	if root == "" {
		root = "data"
	}
	return &Local{root: root}
}

// Root returns the base directory.
func (l *Local) Root() string { return l.root }

func (l *Local) abs(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(path.Clean("/" + p)))
}

func (l *Local) List(_ context.Context, dir string) ([]Object, error) {
	entries, err := os.ReadDir(l.abs(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	var out []Object
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed since ReadDir
		}
		out = append(out, Object{Path: path.Join(dir, e.Name()), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}

func (l *Local) Get(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: get %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", p, err)
	}
	return data, nil
}

// Put writes to a temp file next to the target and renames it into place.
func (l *Local) Put(_ context.Context, p string, data []byte) error {
	dst := l.abs(p)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	return nil
}

var _ Backend = (*Local)(nil)
