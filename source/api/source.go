// Package api is the HTTP JSON source. A single GET is issued per call and
// the JSON body is coerced into a table.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/logger"
	"github.com/molecula/tabingest/table"
)

// StatusError is the cause of an ingest failure due to a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s for url: %s", e.Status, e.URL)
}

type Source struct {
	Client *http.Client
	Log    logger.Logger
}

func NewSource(log logger.Logger) *Source {
	if log == nil {
		log = logger.NopLogger
	}
	return &Source{Client: http.DefaultClient, Log: log}
}

// Ingest fetches url and converts its JSON body into a table. Failures are
// logged and reported as ok == false; the returned table is nil in that case.
func (s *Source) Ingest(ctx context.Context, url string) (_ *table.Table, ok bool) {
	t, err := s.load(ctx, url)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			s.log().Errorf("HTTP error occurred: %v", err)
		} else {
			s.log().Errorf("Error during API ingestion: %v", err)
		}
		return nil, false
	}
	s.log().Infof("API data ingested successfully from '%s': %d rows, %d columns", url, t.NumRows(), t.NumColumns())
	return t, true
}

func (s *Source) log() logger.Logger {
	if s.Log == nil {
		return logger.NopLogger
	}
	return s.Log
}

func (s *Source) load(ctx context.Context, url string) (*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "getting via http")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, &StatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}, "bad response status")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "reading body")
	}
	return Decode(body)
}

// Decode converts a JSON document into a table. An array of objects gives one
// row per element with columns in first-seen key order, and nil where an
// element lacks a key. An object of equal-length arrays gives one column per
// key. Nested objects and arrays in a cell are kept as JSON text.
func Decode(body []byte) (*table.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
	}
	var t *table.Table
	switch tok {
	case json.Delim('['):
		t, err = decodeRecords(dec)
	case json.Delim('{'):
		t, err = decodeColumns(dec)
	default:
		return nil, errors.Newf(errors.ErrMalformedResult, "json is not tabular: got %v, expected an array or object", tok)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrMalformedResult, "trailing data after json document")
	}
	return t, nil
}

// decodeRecords reads the elements of an array of objects. The opening '['
// has been consumed.
func decodeRecords(dec *json.Decoder) (*table.Table, error) {
	var columns []string
	index := make(map[string]int)
	var records []map[string]interface{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
		}
		if tok != json.Delim('{') {
			return nil, errors.Newf(errors.ErrMalformedResult, "array element %d is not an object", len(records))
		}
		rec := make(map[string]interface{})
		for dec.More() {
			key, val, err := decodeMember(dec)
			if err != nil {
				return nil, err
			}
			if _, ok := index[key]; !ok {
				index[key] = len(columns)
				columns = append(columns, key)
			}
			rec[key] = val
		}
		if _, err := dec.Token(); err != nil { // '}'
			return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := make([]interface{}, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// decodeColumns reads an object whose members are equal-length arrays. The
// opening '{' has been consumed.
func decodeColumns(dec *json.Decoder) (*table.Table, error) {
	var columns []string
	var values [][]interface{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Newf(errors.ErrMalformedResult, "unexpected object key %v", tok)
		}
		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(errors.ErrMalformedResult, err, "column '%s' is not an array", key)
		}
		col := make([]interface{}, len(raw))
		for i, r := range raw {
			col[i], err = decodeCell(r)
			if err != nil {
				return nil, errors.WithMessagef(err, "column '%s'", key)
			}
		}
		if len(values) > 0 && len(col) != len(values[0]) {
			return nil, errors.Newf(errors.ErrMalformedResult, "column '%s' has %d values, expected %d", key, len(col), len(values[0]))
		}
		columns = append(columns, key)
		values = append(values, col)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return t, nil
	}
	for i := range values[0] {
		row := make([]interface{}, len(columns))
		for j := range columns {
			row[j] = values[j][i]
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func decodeMember(dec *json.Decoder) (string, interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding json")
	}
	key, ok := tok.(string)
	if !ok {
		return "", nil, errors.Newf(errors.ErrMalformedResult, "unexpected object key %v", tok)
	}
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", nil, errors.Wrapf(errors.ErrMalformedResult, err, "decoding value of '%s'", key)
	}
	val, err := decodeCell(raw)
	if err != nil {
		return "", nil, errors.WithMessagef(err, "key '%s'", key)
	}
	return key, val, nil
}

// decodeCell decodes a scalar, or compacts a nested value into JSON text.
func decodeCell(raw json.RawMessage) (interface{}, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, errors.Wrap(errors.ErrMalformedResult, err, "compacting nested value")
		}
		return buf.String(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedResult, err, "decoding value")
	}
	return table.Normalize(v), nil
}
