package csv

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/logger"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(name, []byte(content), 0600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return name
}

func TestIngest(t *testing.T) {
	file := `
booking_id,hotel,is_canceled,adr
1,Resort Hotel,0,75.5
2,City Hotel,1,98
3,City Hotel,0,
4,Resort Hotel,1,107.25
`[1:]
	name := writeTempFile(t, file)
	log := logger.NewBufferLogger()

	tbl, ok := NewSource(log).Ingest(name)
	if !ok {
		t.Fatalf("ingest failed: %v", log.Entries(logger.LevelError))
	}
	if got, exp := strings.Join(tbl.Columns(), ","), "booking_id,hotel,is_canceled,adr"; got != exp {
		t.Errorf("columns: got %s, exp %s", got, exp)
	}
	if tbl.NumRows() != 4 {
		t.Errorf("rows: got %d, exp 4", tbl.NumRows())
	}
	if v, _ := tbl.Value(2, "adr"); v != nil {
		t.Errorf("empty adr: got %v, exp nil", v)
	}
	if v, _ := tbl.Value(1, "is_canceled"); v != int64(1) {
		t.Errorf("is_canceled: got %#v, exp int64(1)", v)
	}
	if n := len(log.Entries(logger.LevelInfo)); n != 1 {
		t.Errorf("expected 1 info entry, got %d", n)
	}
	if n := len(log.Entries(logger.LevelError)); n != 0 {
		t.Errorf("expected no error entries, got %d", n)
	}
}

func TestIngestZeroValueSource(t *testing.T) {
	name := writeTempFile(t, "a,b\n1,2\n")
	var s Source
	tbl, ok := s.Ingest(name)
	if !ok || tbl.NumRows() != 1 {
		t.Fatalf("ingest with zero value source: ok=%v", ok)
	}
	if _, ok := s.Ingest(name + ".missing"); ok {
		t.Fatal("expected missing file to fail")
	}
}

func TestIngestTabDelimited(t *testing.T) {
	name := writeTempFile(t, "a\tb\n1\tx\n")
	s := NewSource(logger.NopLogger)
	s.Comma = '\t'
	tbl, ok := s.Ingest(name)
	if !ok {
		t.Fatal("ingest failed")
	}
	if v, _ := tbl.Value(0, "b"); v != "x" {
		t.Errorf("got %v, exp x", v)
	}
}

func TestIngestFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code errors.Code
	}{
		{
			name: "missing",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			code: errors.ErrSourceUnavailable,
		},
		{
			name: "malformedRow",
			path: func(t *testing.T) string { return writeTempFile(t, "a,b\n1,2\n3,4,5\n") },
			code: errors.ErrMalformedResult,
		},
		{
			name: "empty",
			path: func(t *testing.T) string { return writeTempFile(t, "") },
			code: errors.ErrMalformedResult,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			log := logger.NewBufferLogger()
			s := NewSource(log)
			path := test.path(t)

			tbl, ok := s.Ingest(path)
			if ok || tbl != nil {
				t.Fatalf("expected no result, got %v, %v", tbl, ok)
			}
			if n := len(log.Entries(logger.LevelError)); n != 1 {
				t.Errorf("expected 1 error entry, got %d", n)
			}
			if n := len(log.Entries(logger.LevelInfo)); n != 0 {
				t.Errorf("expected no info entries, got %d", n)
			}

			_, err := s.load(path)
			if !errors.Is(err, test.code) {
				t.Errorf("expected %s, got %v", test.code, err)
			}
		})
	}
}

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "id,status\n1,ok\n2,late\n")
	}))
	defer srv.Close()

	s := NewSource(logger.NopLogger)
	tbl, ok := s.Ingest(srv.URL + "/data.csv")
	if !ok {
		t.Fatal("ingest failed")
	}
	if tbl.NumRows() != 2 {
		t.Errorf("rows: got %d, exp 2", tbl.NumRows())
	}

	if _, err := s.load(srv.URL + "/other.csv"); !errors.Is(err, errors.ErrSourceUnavailable) {
		t.Errorf("expected source unavailable for 404, got %v", err)
	}
}
