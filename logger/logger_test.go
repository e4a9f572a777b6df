package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStandardLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(&buf)
	l.logger.SetOutput(formatLog{w: &buf, now: func() time.Time {
		return time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	}})

	l.Infof("ingested %d rows", 10)
	l.Debugf("hidden")
	l.Errorf("broken")

	exp := "2024-03-01T08:30:00.000000Z - INFO - ingested 10 rows\n" +
		"2024-03-01T08:30:00.000000Z - ERROR - broken\n"
	assert.Equal(t, exp, buf.String())
}

func TestVerboseLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewVerboseLogger(&buf).WithPrefix("sql: ")
	l.Debugf("connecting")

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, " - DEBUG - sql: connecting\n"), out)
}

func TestBufferLoggerEntries(t *testing.T) {
	l := NewBufferLogger()
	l.Infof("one")
	l.Errorf("two %d", 2)
	l.Warnf("three")
	l.Errorf("four\n")

	assert.Equal(t, []string{"two 2", "four"}, l.Entries(LevelError))
	assert.Equal(t, []string{"one"}, l.Entries(LevelInfo))
	assert.Equal(t, []string{"three"}, l.Entries(LevelWarn))
}
