// Package sql is the relational database source. Each Fetch opens a single
// connection, reads a whole table with a fixed query and closes the
// connection again.
package sql

import (
	"context"
	"database/sql"
	"os"
	"regexp"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/molecula/tabingest/config"
	"github.com/molecula/tabingest/errors"
	"github.com/molecula/tabingest/logger"
	"github.com/molecula/tabingest/table"
)

const (
	DefaultDriver = "mysql"
	DefaultTable  = "hotel"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Source struct {
	Driver      string
	Credentials config.Credentials
	Table       string
	Log         logger.Logger

	// open is sql.Open; tests replace it to observe the connection.
	open func(driver, dsn string) (*sql.DB, error)
}

func NewSource(driver string, creds config.Credentials, tableName string, log logger.Logger) *Source {
	if driver == "" {
		driver = DefaultDriver
	}
	if tableName == "" {
		tableName = DefaultTable
	}
	if log == nil {
		log = logger.NopLogger
	}
	return &Source{
		Driver:      driver,
		Credentials: creds,
		Table:       tableName,
		Log:         log,
		open:        sql.Open,
	}
}

// Query returns the statement run by Fetch.
func (s *Source) Query() string {
	return "SELECT * FROM " + s.Table
}

// Fetch reads every row of the configured table. The connection is closed
// before Fetch returns, whether or not reading succeeded. Failures are
// returned, not logged.
func (s *Source) Fetch(ctx context.Context) (_ *table.Table, err error) {
	log := s.Log
	if log == nil {
		log = logger.NopLogger
	}
	open := s.open
	if open == nil {
		open = sql.Open
	}
	log.Infof("Reading the SQL data from table '%s' via %s", s.Table, s.Driver)

	if !identRe.MatchString(s.Table) {
		return nil, errors.Newf(errors.ErrConfigInvalid, "invalid table name '%s'", s.Table)
	}
	dsn, err := DSN(s.Driver, s.Credentials)
	if err != nil {
		return nil, err
	}
	if s.Driver == "sqlite" {
		// Connecting would create a missing database file.
		if _, err := os.Stat(dsn); err != nil {
			return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "opening sqlite database")
		}
	}

	db, err := open(s.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSourceUnavailable, err, "opening %s connection", s.Driver)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrSourceUnavailable, cerr, "closing connection")
		}
	}()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrapf(errors.ErrSourceUnavailable, err, "connecting via %s", s.Driver)
	}
	log.Infof("Connection successful")

	t, err := s.read(ctx, db)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d rows, %d columns", t.NumRows(), t.NumColumns())
	return t, nil
}

func (s *Source) read(ctx context.Context, db *sql.DB) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "executing query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "getting columns")
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, errors.WithMessage(err, "building table from query columns")
	}

	vals := make([]interface{}, len(cols))
	for i := range vals {
		vals[i] = new(interface{})
	}
	for rows.Next() {
		if err := rows.Scan(vals...); err != nil {
			return nil, errors.Wrapf(errors.ErrSourceUnavailable, err, "scanning row %d", t.NumRows())
		}
		// AppendRow normalizes each *interface{} and copies []byte values
		// into strings, so vals can be reused.
		if err := t.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, err, "iterating rows")
	}
	return t, nil
}
