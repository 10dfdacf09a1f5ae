// Package storage abstracts the object store holding raw and curated tables.
// Paths are slash separated and relative to the backend root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// Object describes one stored file.
type Object struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Backend is a flat object store. Put must be all-or-nothing: readers never observe a
// partially written object.
type Backend interface {
	// List returns the objects directly under dir. A missing dir is an empty listing.
	List(ctx context.Context, dir string) ([]Object, error)
	Get(ctx context.Context, p string) ([]byte, error)
	Put(ctx context.Context, p string, data []byte) error
}

// Match returns the sorted paths in dir whose base name matches pattern (path.Match syntax).
func Match(ctx context.Context, b Backend, dir, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("storage: pattern %q: %w", pattern, err)
	}
	objs, err := b.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, o := range objs {
		if ok, _ := path.Match(pattern, path.Base(o.Path)); ok {
			out = append(out, o.Path)
		}
	}
	slices.Sort(out)
	return out, nil
}
