package saver

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVCodec stores rows as CSV with a header line. Timestamps are RFC 3339 (UTC, ns),
// an empty cell is a null.
type CSVCodec[T any] struct {
	m csvMapper[T]
}

type csvMapper[T any] struct {
	header []string
	encode func(T) []string
	decode func([]string) (T, error)
}

func (CSVCodec[T]) Extension() string { return FormatCSV }

func (c CSVCodec[T]) Encode(w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.m.header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(c.m.encode(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c CSVCodec[T]) Decode(data []byte) ([]T, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = len(c.m.header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("saver: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	for i, name := range c.m.header {
		if records[0][i] != name {
			return nil, fmt.Errorf("saver: read csv: column %d is %q, want %q", i, records[0][i], name)
		}
	}
	rows := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		r, err := c.m.decode(rec)
		if err != nil {
			return nil, fmt.Errorf("saver: read csv line %d: %w", i+2, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optFloatStr(f *float64) string {
	if f == nil {
		return ""
	}
	return floatStr(*f)
}

func timeStr(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// cells decodes one record column by column and keeps the first error.
type cells struct {
	rec []string
	err error
}

func (c *cells) str(i int) string { return c.rec[i] }

func (c *cells) float(i int) float64 {
	if c.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(c.rec[i], 64)
	if err != nil {
		c.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (c *cells) optFloat(i int) *float64 {
	if c.rec[i] == "" {
		return nil
	}
	v := c.float(i)
	return &v
}

func (c *cells) int(i int) int64 {
	if c.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(c.rec[i], 10, 64)
	if err != nil {
		c.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (c *cells) bool(i int) bool {
	if c.err != nil {
		return false
	}
	v, err := strconv.ParseBool(c.rec[i])
	if err != nil {
		c.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v
}

func (c *cells) time(i int) time.Time {
	if c.err != nil {
		return time.Time{}
	}
	v, err := time.Parse(time.RFC3339Nano, c.rec[i])
	if err != nil {
		c.err = fmt.Errorf("column %d: %w", i, err)
	}
	return v.UTC()
}
