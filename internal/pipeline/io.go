package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"stock-trades/internal/saver"
	"stock-trades/internal/storage"
)

// readTables reads every file fully, in order, picking the codec from the extension.
func readTables[T any](ctx context.Context, b storage.Backend, paths []string) ([]T, error) {
	var all []T
	for _, p := range paths {
		codec := saver.ForPath[T](p)
		if codec == nil {
			return nil, fmt.Errorf("read %s: unsupported file format", p)
		}
		data, err := b.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		rows, err := codec.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

// encodeTable serializes rows fully in memory so a failed encode never reaches the backend.
func encodeTable[T any](format string, rows []T) ([]byte, string, error) {
	codec := saver.NewCodec[T](format)
	if codec == nil {
		return nil, "", fmt.Errorf("unsupported save format %q", format)
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, rows); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), codec.Extension(), nil
}
