// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package table holds the in-memory tabular representation every source
// produces: ordered, named columns over rows of scalar values.
package table

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/molecula/tabingest/errors"
)

// Table is an ordered set of named columns over rows of equal width. Values
// are nil, string, int64, float64, bool or time.Time.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]interface{}
}

// New returns an empty table with the given columns. Column names must be
// unique.
func New(columns ...string) (*Table, error) {
	t := &Table{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, ok := t.index[c]; ok {
			return nil, errors.Newf(errors.ErrMalformedResult, "duplicate column '%s'", c)
		}
		t.columns[i] = c
		t.index[c] = i
	}
	return t, nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) NumColumns() int { return len(t.columns) }

func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the values of row i in column order. The slice must not be
// modified.
func (t *Table) Row(i int) []interface{} {
	return t.rows[i]
}

// Column returns a copy of the values of the named column.
func (t *Table) Column(name string) ([]interface{}, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]interface{}, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, true
}

// Value returns the value at row i in the named column.
func (t *Table) Value(i int, name string) (interface{}, bool) {
	j, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][j], true
}

// AppendRow adds a row. It must have exactly one value per column; values
// are passed through Normalize.
func (t *Table) AppendRow(vals ...interface{}) error {
	if len(vals) != len(t.columns) {
		return errors.Newf(errors.ErrMalformedResult, "row has %d values, table has %d columns", len(vals), len(t.columns))
	}
	row := make([]interface{}, len(vals))
	for i, v := range vals {
		row[i] = Normalize(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

// Take returns a new table holding the rows at the given indices, in the
// order given. Rows are shared with t.
func (t *Table) Take(indices []int) *Table {
	out := &Table{
		columns: t.columns,
		index:   t.index,
		rows:    make([][]interface{}, len(indices)),
	}
	for i, idx := range indices {
		out.rows[i] = t.rows[idx]
	}
	return out
}

// Normalize maps values produced by SQL drivers and JSON decoding onto the
// scalar set held by a Table. Unknown types are kept as is.
func Normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return v
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) <= 1<<63-1 {
			return int64(v)
		}
		return float64(v)
	case uint64:
		if v <= 1<<63-1 {
			return int64(v)
		}
		return float64(v)
	case float32:
		return float64(v)
	case json.Number:
		if i, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	case *interface{}:
		if v == nil {
			return nil
		}
		return Normalize(*v)
	}
	return v
}
