package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDailyAppend -- make sure we always append to an existing file
//
//  1. Create today's log file using normal means
//  2. Open a DailyFileWriter on the same directory
//     write line 1
//  3. close file
//  4. read file, make sure it contains line0,line1
func TestDailyAppend(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fname := filepath.Join(dir, "log_2024-03-01.log")

	if err := os.WriteFile(fname, []byte("line0\n"), 0600); err != nil {
		t.Fatalf("Unable to write initial line %s: %s", fname, err)
	}

	f, err := newDailyFileWriter(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Unable to create writer in %s: %s", dir, err)
	}
	if f.Name() != fname {
		t.Errorf("Name was %s, expected %s", f.Name(), fname)
	}
	_, err = f.Write([]byte("line1\n"))
	if err != nil {
		t.Errorf("Got write error1: %s", err)
	}
	err = f.Close()
	if err != nil {
		t.Errorf("Got closing error for %s: %s", fname, err)
	}

	out, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("Unable read in final file %s: %s", fname, err)
	}
	if outstr := string(out); outstr != "line0\nline1\n" {
		t.Errorf("Result was %s", outstr)
	}
}

// Test that a write on a new day goes to a new file and leaves the previous
// day's file untouched.
func TestDailyRollover(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

	f, err := newDailyFileWriter(dir, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Unable to create writer in %s: %s", dir, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("day1\n")); err != nil {
		t.Fatalf("Got write error on day 1: %s", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := f.Write([]byte("day2\n")); err != nil {
		t.Fatalf("Got write error on day 2: %s", err)
	}

	for name, exp := range map[string]string{
		"log_2024-03-01.log": "day1\n",
		"log_2024-03-02.log": "day2\n",
	} {
		out, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Unable to read %s: %s", name, err)
		}
		if string(out) != exp {
			t.Errorf("%s: got %q, expected %q", name, out, exp)
		}
	}
}
