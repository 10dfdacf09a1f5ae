package saver

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetCodec stores rows as Parquet, one column per struct field tag.
type ParquetCodec[T any] struct{}

func (ParquetCodec[T]) Extension() string { return FormatParquet }

func (ParquetCodec[T]) Encode(w io.Writer, rows []T) error {
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("saver: write parquet: %w", err)
	}
	return nil
}

func (ParquetCodec[T]) Decode(data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("saver: read parquet: %w", err)
	}
	return rows, nil
}
