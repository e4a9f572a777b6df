// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/molecula/tabingest/config"
	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/ingest"
	"github.com/molecula/tabingest/logger"
	"github.com/molecula/tabingest/source/sql"
)

// IngestCommand runs the database ingest: it reads the configured table and
// writes the raw, train and test datasets, then prints a summary of what was
// written to Stdout.
type IngestCommand struct {
	// Directory the datasets are written to.
	DataDir string

	// Directory for the daily log files. Empty disables file logging.
	LogDir string

	// Dotenv file holding the database credentials.
	EnvFile string

	// Database driver and table to read.
	Driver string
	Table  string

	// If set, counters are written here in the prometheus text format.
	MetricsFile string

	Verbose bool

	// Standard input/output
	*CmdIO
}

// NewIngestCommand returns a new instance of IngestCommand.
func NewIngestCommand(stdin io.Reader, stdout, stderr io.Writer) *IngestCommand {
	return &IngestCommand{
		DataDir: ingest.DefaultDataDir,
		LogDir:  "logs",
		EnvFile: ".env",
		Driver:  sql.DefaultDriver,
		Table:   sql.DefaultTable,
		CmdIO:   NewCmdIO(stdin, stdout, stderr),
	}
}

// setupLogger logs to stderr and, when LogDir is set, to a daily file. The
// returned close function releases the file.
func (cmd *IngestCommand) setupLogger() (func() error, error) {
	var w io.Writer = cmd.Stderr
	closer := func() error { return nil }
	if cmd.LogDir != "" {
		fw, err := logger.NewDailyFileWriter(cmd.LogDir)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrPersistenceFailure, err, "opening log file in '%s'", cmd.LogDir)
		}
		w = io.MultiWriter(cmd.Stderr, fw)
		closer = fw.Close
	}
	if cmd.Verbose {
		cmd.SetLogger(logger.NewVerboseLogger(w))
	} else {
		cmd.SetLogger(logger.NewStandardLogger(w))
	}
	return closer, nil
}

// Run executes the ingest.
func (cmd *IngestCommand) Run(ctx context.Context) (err error) {
	closeLog, err := cmd.setupLogger()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrPersistenceFailure, cerr, "closing log file")
		}
	}()
	log := cmd.Logger()
	log.Infof("Logging setup complete.")
	if cmd.MetricsFile != "" {
		defer func() {
			if merr := prometheus.WriteToTextfile(cmd.MetricsFile, prometheus.DefaultGatherer); merr != nil && err == nil {
				err = errors.Wrapf(errors.ErrPersistenceFailure, merr, "writing metrics to '%s'", cmd.MetricsFile)
			}
		}()
	}

	creds, err := config.LoadCredentials(cmd.EnvFile)
	if err != nil {
		return err
	}
	if err := creds.Validate(cmd.Driver); err != nil {
		return err
	}

	src := sql.NewSource(cmd.Driver, creds, cmd.Table, log.WithPrefix("sql: "))
	in := ingest.New(ingest.NewConfig(cmd.DataDir), src, log)
	train, test, err := in.IngestDatabase(ctx)
	if err != nil {
		return err
	}

	cfg := in.Config()
	t := table.NewWriter()
	t.SetOutputMirror(cmd.Stdout)
	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"dataset", "path", "rows"})
	t.AppendRow(table.Row{"raw", cfg.RawDataPath(), train.NumRows() + test.NumRows()})
	t.AppendRow(table.Row{"train", cfg.TrainDataPath(), train.NumRows()})
	t.AppendRow(table.Row{"test", cfg.TestDataPath(), test.NumRows()})
	t.Render()
	return nil
}
