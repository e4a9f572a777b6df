package sql

import (
	"net"
	"net/url"

	"github.com/go-sql-driver/mysql"

	"github.com/molecula/tabingest/config"
	"github.com/molecula/tabingest/errors"
)

// DSN builds the data source name for driver from creds. Supported drivers
// are mysql, postgres (lib/pq), pgx, sqlserver and sqlite; for sqlite the
// database is the path of the database file.
func DSN(driver string, creds config.Credentials) (string, error) {
	switch driver {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = creds.User
		cfg.Passwd = creds.Password
		cfg.Net = "tcp"
		cfg.Addr = withDefaultPort(creds.Host, "3306")
		cfg.DBName = creds.Database
		return cfg.FormatDSN(), nil
	case "postgres", "pgx":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(creds.User, creds.Password),
			Host:     withDefaultPort(creds.Host, "5432"),
			Path:     "/" + creds.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "sqlserver":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(creds.User, creds.Password),
			Host:     withDefaultPort(creds.Host, "1433"),
			RawQuery: url.Values{"database": {creds.Database}}.Encode(),
		}
		return u.String(), nil
	case "sqlite":
		return creds.Database, nil
	}
	return "", errors.Newf(errors.ErrConfigInvalid, "unsupported driver '%s' (expected mysql, postgres, pgx, sqlserver or sqlite)", driver)
}

func withDefaultPort(host, port string) string {
	if host == "" {
		return host
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, port)
}
