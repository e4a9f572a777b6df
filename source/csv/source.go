// Package csv is the delimited file source. It reads a local file, or an
// http(s) URL, into a table.
package csv

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/logger"
	"github.com/molecula/tabingest/table"
)

type Source struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	Log   logger.Logger
}

func NewSource(log logger.Logger) *Source {
	if log == nil {
		log = logger.NopLogger
	}
	return &Source{Comma: ',', Log: log}
}

// Ingest reads the delimited file at name. Failures are logged and reported
// as ok == false; the returned table is nil in that case.
func (s *Source) Ingest(name string) (_ *table.Table, ok bool) {
	t, err := s.load(name)
	if err != nil {
		s.log().Errorf("Error during CSV ingestion: %v", err)
		return nil, false
	}
	s.log().Infof("CSV data ingested successfully from '%s': %d rows, %d columns", name, t.NumRows(), t.NumColumns())
	return t, true
}

func (s *Source) log() logger.Logger {
	if s.Log == nil {
		return logger.NopLogger
	}
	return s.Log
}

func (s *Source) load(name string) (*table.Table, error) {
	f, err := openFileOrURL(name)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSourceUnavailable, err, "opening %s", name)
	}
	defer f.Close()

	t, err := table.ReadCSV(f, s.Comma)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing %s", name)
	}
	return t, nil
}

func openFileOrURL(name string) (io.ReadCloser, error) {
	var content io.ReadCloser
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		resp, err := http.Get(name) // nolint: gosec
		if err != nil {
			return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "getting via http")
		}
		if resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, errors.Newf(errors.ErrSourceUnavailable, "got status %d via http.Get", resp.StatusCode)
		}
		content = resp.Body
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "opening file")
		}
		content = f
	}
	return content, nil
}
