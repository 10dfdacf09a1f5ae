package manifest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"sync"

	"github.com/segmentio/encoding/json"

	"stock-trades/internal/storage"
)

// Dir holds the manifest documents on the backend.
const Dir = "_manifest"

// FileStore keeps one JSON document per stage next to the data it describes.
// Record is a read-modify-write; concurrent runs of the same stage are serialized by the
// stage lock.
type FileStore struct {
	backend storage.Backend
	mu      sync.Mutex
}

func NewFileStore(b storage.Backend) *FileStore {
	return &FileStore{backend: b}
}

func docPath(stage string) string {
	return path.Join(Dir, stage+".json")
}

func (s *FileStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, e.Stage)
	if err != nil {
		return err
	}
	entries = append(entries, e)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", e.Stage, err)
	}
	if err := s.backend.Put(ctx, docPath(e.Stage), data); err != nil {
		return fmt.Errorf("manifest: record %s: %w", e.Stage, err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, stage string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, stage)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return entries, nil
}

func (s *FileStore) load(ctx context.Context, stage string) ([]Entry, error) {
	data, err := s.backend.Get(ctx, docPath(stage))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: load %s: %w", stage, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", stage, err)
	}
	return entries, nil
}

var _ Store = (*FileStore)(nil)
