package saver

import (
	"io"
	"path"
	"strings"
)

// Supported formats. Parquet is the production format; csv is handy in dev.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatJSON    = "json"
)

// Formats lists every format NewCodec understands.
var Formats = []string{FormatParquet, FormatCSV, FormatJSON}

// Codec encodes and decodes one table of rows. The stages depend only on this interface;
// main picks the implementation from SAVE_FORMAT.
type Codec[T any] interface {
	Encode(w io.Writer, rows []T) error
	Decode(data []byte) ([]T, error)
	Extension() string
}

// NewCodec creates the implementation for format (csv, parquet, json).
// Returns nil if the format is not supported, or if csv is requested for a row type
// without a csv mapping.
func NewCodec[T any](format string) Codec[T] {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatParquet:
		return ParquetCodec[T]{}
	case FormatCSV:
		m, ok := csvMapperFor[T]()
		if !ok {
			return nil
		}
		return CSVCodec[T]{m: m}
	case FormatJSON:
		return JSONCodec[T]{}
	default:
		return nil
	}
}

// ForPath picks the codec from the file extension of p, so files written under an
// earlier SAVE_FORMAT stay readable.
func ForPath[T any](p string) Codec[T] {
	return NewCodec[T](strings.TrimPrefix(path.Ext(p), "."))
}

// Supported reports whether format is known.
func Supported(format string) bool {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}
