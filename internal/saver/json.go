package saver

import (
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
)

// JSONCodec stores rows as one indented JSON array.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Extension() string { return FormatJSON }

func (JSONCodec[T]) Encode(w io.Writer, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func (JSONCodec[T]) Decode(data []byte) ([]T, error) {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("saver: read json: %w", err)
	}
	return rows, nil
}
