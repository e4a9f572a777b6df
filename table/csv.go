// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/molecula/tabingest/errors"
)

// Layouts used when writing time.Time values. Dates at midnight UTC are
// written without a time part; fractional seconds are kept when present.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "2006-01-02 15:04:05.999999999"
)

// ReadCSV reads delimited text with a header row. There is one column per
// header field, in header order, and one row per data line. Each column is
// typed int64 if every non-empty cell parses as an integer, float64 if every
// non-empty cell parses as a number, and string otherwise. Empty cells are
// nil.
func ReadCSV(r io.Reader, comma rune) (*Table, error) {
	reader := csv.NewReader(r)
	if comma != 0 {
		reader.Comma = comma
	}
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrMalformedResult, "no header row")
	} else if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedResult, err, "reading header")
	}
	t, err := New(uniqueHeader(header)...)
	if err != nil {
		return nil, err
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(errors.ErrMalformedResult, err, "reading record")
		}
		records = append(records, rec)
	}

	parsers := make([]func(string) interface{}, len(header))
	for j := range header {
		parsers[j] = inferColumn(records, j)
	}
	for _, rec := range records {
		row := make([]interface{}, len(rec))
		for j, s := range rec {
			row[j] = parsers[j](s)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// uniqueHeader names empty header fields "Unnamed: i" and renames repeated
// names to name.1, name.2, ...
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	counts := make(map[string]int)
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for taken[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func inferColumn(records [][]string, j int) func(string) interface{} {
	isInt, isFloat := true, true
	for _, rec := range records {
		s := rec[j]
		if s == "" {
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
				break
			}
		}
	}
	switch {
	case isInt:
		return func(s string) interface{} {
			if s == "" {
				return nil
			}
			i, _ := strconv.ParseInt(s, 10, 64)
			return i
		}
	case isFloat:
		return func(s string) interface{} {
			if s == "" {
				return nil
			}
			f, _ := strconv.ParseFloat(s, 64)
			return f
		}
	default:
		return func(s string) interface{} {
			if s == "" {
				return nil
			}
			return s
		}
	}
}

// WriteCSV writes t as comma delimited text: a header row followed by one
// line per row. No index column is written.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(errors.ErrPersistenceFailure, err, "writing header")
	}
	rec := make([]string, len(t.columns))
	for _, row := range t.rows {
		for j, v := range row {
			rec[j] = FormatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(errors.ErrPersistenceFailure, err, "writing record")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrPersistenceFailure, err, "flushing")
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes t to it.
func (t *Table) WriteCSVFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrPersistenceFailure, err, "creating '%s'", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(errors.ErrPersistenceFailure, cerr, "closing '%s'", path)
		}
	}()
	if err := t.WriteCSV(f); err != nil {
		return errors.WithMessagef(err, "writing '%s'", path)
	}
	return nil
}

// FormatValue renders a cell for delimited output. nil is the empty string.
func FormatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return formatTime(v)
	}
	return fmt.Sprint(v)
}

func formatTime(v time.Time) string {
	_, offset := v.Zone()
	h, m, sec := v.Clock()
	switch {
	case offset != 0:
		return v.Format(TimeLayout + "-07:00")
	case h == 0 && m == 0 && sec == 0 && v.Nanosecond() == 0:
		return v.Format(DateLayout)
	}
	return v.Format(TimeLayout)
}
