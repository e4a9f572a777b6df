// This file is a modified redistribution of reopen (github.com/client9/reopen),
// which is governed by the following license notice:
//
// The MIT License (MIT)
//
// Copyright (c) 2015 Nick Galbreath
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package logger

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DayLayout is the date layout used in daily log file names.
const DayLayout = "2006-01-02"

// DailyFileWriter appends to one file per calendar day, named
// log_YYYY-MM-DD.log inside its directory. The file is reopened on the first
// write of a new day.
type DailyFileWriter struct {
	mu   sync.Mutex // ensures close / reopen / write are not called at the same time, protects f and day
	f    *os.File
	day  string
	dir  string
	mode os.FileMode
	now  func() time.Time
}

// Close calls the underlying File.Close()
func (d *DailyFileWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// Name returns the path of the file currently written to.
func (d *DailyFileWriter) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path(d.day)
}

func (d *DailyFileWriter) path(day string) string {
	return filepath.Join(d.dir, "log_"+day+".log")
}

// mutex free version
func (d *DailyFileWriter) reopen(day string) error {
	if d.f != nil {
		d.f.Close()
		d.f = nil
	}
	newf, err := os.OpenFile(d.path(day), os.O_WRONLY|os.O_APPEND|os.O_CREATE, d.mode)
	if err != nil {
		return err
	}
	d.f = newf
	d.day = day
	return nil
}

// Write implements the standard io.Writer interface, switching to a new file
// when the day has changed since the previous write.
func (d *DailyFileWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if day := d.now().Format(DayLayout); day != d.day || d.f == nil {
		if err := d.reopen(day); err != nil {
			return 0, err
		}
	}
	return d.f.Write(p)
}

// NewDailyFileWriter creates dir if needed and opens today's log file in it
// for appending.
func NewDailyFileWriter(dir string) (*DailyFileWriter, error) {
	return newDailyFileWriter(dir, time.Now)
}

func newDailyFileWriter(dir string, now func() time.Time) (*DailyFileWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	writer := DailyFileWriter{
		dir:  dir,
		mode: 0600,
		now:  now,
	}
	if err := writer.reopen(now().Format(DayLayout)); err != nil {
		return nil, err
	}
	return &writer, nil
}
