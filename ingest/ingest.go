// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ingest runs the database backed ingest: fetch a table, persist it,
// split it into train and test sets and persist those too.
package ingest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/logger"
	"github.com/molecula/tabingest/source/api"
	"github.com/molecula/tabingest/source/csv"
	"github.com/molecula/tabingest/table"
)

// DefaultDataDir is where the datasets are written unless configured otherwise.
const DefaultDataDir = "Data_folder"

// Config holds the locations of the three datasets written by
// IngestDatabase. It is fixed once created.
type Config struct {
	rawDataPath   string
	trainDataPath string
	testDataPath  string
}

// NewConfig lays the datasets out in dataDir as raw_data.csv, train.csv and
// test.csv.
func NewConfig(dataDir string) Config {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return Config{
		rawDataPath:   filepath.Join(dataDir, "raw_data.csv"),
		trainDataPath: filepath.Join(dataDir, "train.csv"),
		testDataPath:  filepath.Join(dataDir, "test.csv"),
	}
}

func (c Config) RawDataPath() string   { return c.rawDataPath }
func (c Config) TrainDataPath() string { return c.trainDataPath }
func (c Config) TestDataPath() string  { return c.testDataPath }

// Fetcher is a source which always yields a table or an error, such as the
// database source.
type Fetcher interface {
	Fetch(ctx context.Context) (*table.Table, error)
}

// State is a step of a database ingest run.
type State int

const (
	StateStart State = iota
	StateFetched
	StateRawPersisted
	StatePartitioned
	StateTrainPersisted
	StateTestPersisted
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetched:
		return "fetched"
	case StateRawPersisted:
		return "raw-persisted"
	case StatePartitioned:
		return "partitioned"
	case StateTrainPersisted:
		return "train-persisted"
	case StateTestPersisted:
		return "test-persisted"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Ingester drives ingestion. It keeps no state between calls.
type Ingester struct {
	config Config
	source Fetcher
	log    logger.Logger

	csv *csv.Source
	api *api.Source
}

func New(config Config, source Fetcher, log logger.Logger) *Ingester {
	if log == nil {
		log = logger.NopLogger
	}
	return &Ingester{
		config: config,
		source: source,
		log:    log,
		csv:    csv.NewSource(log),
		api:    api.NewSource(log),
	}
}

func (in *Ingester) Config() Config { return in.config }

// IngestCSV reads a delimited file. ok is false if it could not be read; the
// failure has been logged.
func (in *Ingester) IngestCSV(path string) (_ *table.Table, ok bool) {
	return in.csv.Ingest(path)
}

// IngestAPI reads a JSON document from url. ok is false if it could not be
// read; the failure has been logged.
func (in *Ingester) IngestAPI(ctx context.Context, url string) (_ *table.Table, ok bool) {
	return in.api.Ingest(ctx, url)
}

// IngestDatabase fetches the source table, writes it to the raw path, splits
// it 80/20 with a fixed seed and writes the train and test sets. A fetch
// failure writes nothing. Files written before a later failure are left in
// place.
func (in *Ingester) IngestDatabase(ctx context.Context) (train, test *table.Table, err error) {
	state := StateStart
	defer func() {
		if err != nil {
			in.log.Errorf("Error during database ingestion (last completed step: %s): %v", state, err)
			CounterRuns.WithLabelValues(string(errors.KindOf(err))).Inc()
			state = StateFailed
		} else {
			CounterRuns.WithLabelValues(StateDone.String()).Inc()
		}
		in.log.Debugf("ingest state: %s", state)
	}()
	advance := func(s State) {
		state = s
		in.log.Debugf("ingest state: %s", state)
	}

	raw, err := in.source.Fetch(ctx)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "fetching from database")
	}
	CounterRowsFetched.Add(float64(raw.NumRows()))
	in.log.Infof("Database data ingested successfully.")
	advance(StateFetched)

	dir := filepath.Dir(in.config.RawDataPath())
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrPersistenceFailure, err, "creating data directory '%s'", dir)
	}
	if err := in.persist("raw", raw, in.config.RawDataPath()); err != nil {
		return nil, nil, err
	}
	advance(StateRawPersisted)

	train, test, err = table.Split(raw, table.DefaultTestPercent, table.DefaultSeed)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "splitting")
	}
	advance(StatePartitioned)

	if err := in.persist("train", train, in.config.TrainDataPath()); err != nil {
		return nil, nil, err
	}
	advance(StateTrainPersisted)

	if err := in.persist("test", test, in.config.TestDataPath()); err != nil {
		return nil, nil, err
	}
	advance(StateTestPersisted)

	in.log.Infof("Data ingestion is complete: %d train rows, %d test rows", train.NumRows(), test.NumRows())
	state = StateDone
	return train, test, nil
}

func (in *Ingester) persist(dataset string, t *table.Table, path string) error {
	if err := t.WriteCSVFile(path); err != nil {
		return errors.WithMessagef(err, "persisting %s dataset", dataset)
	}
	CounterRowsWritten.WithLabelValues(dataset).Add(float64(t.NumRows()))
	in.log.Debugf("wrote %d %s rows to '%s'", t.NumRows(), dataset, path)
	return nil
}
