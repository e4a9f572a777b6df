// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package config loads the database credentials used by the ingester.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/molecula/tabingest/errors"
)

// EnvPrefix prefixes the upper-case environment variable names understood
// by this package and by the command line (TABINGEST_DATA_DIR, ...).
const EnvPrefix = "TABINGEST"

// Credential keys, as they are named in a dotenv file or the environment.
const (
	KeyHost     = "host"
	KeyUser     = "user"
	KeyPassword = "password"
	KeyDatabase = "db"
)

// Credentials identify the database to read from. They are loaded once at
// startup and never logged; String redacts the password.
type Credentials struct {
	Host     string
	User     string
	Password string
	Database string
}

func (c Credentials) String() string {
	pass := ""
	if c.Password != "" {
		pass = "****"
	}
	return "host=" + c.Host + " user=" + c.User + " password=" + pass + " db=" + c.Database
}

// Validate reports every missing value needed to connect with driver. File
// based drivers only need the database.
func (c Credentials) Validate(driver string) error {
	var missing []string
	check := func(key, val string) {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if driver != "sqlite" {
		check(KeyHost, c.Host)
		check(KeyUser, c.User)
		check(KeyPassword, c.Password)
	}
	check(KeyDatabase, c.Database)
	if len(missing) > 0 {
		return errors.Newf(errors.ErrConfigInvalid, "missing database credentials: %s (set them in the environment or the env file)", strings.Join(missing, ", "))
	}
	return nil
}

// LoadCredentials reads credentials from envFile, if it exists, and from the
// process environment, which takes precedence. Each key may be given as is
// (host, user, password, db) or upper-cased with EnvPrefix
// (TABINGEST_HOST, ...).
func LoadCredentials(envFile string) (Credentials, error) {
	v := viper.New()
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Credentials{}, errors.Wrapf(errors.ErrConfigInvalid, err, "reading env file '%s'", envFile)
			}
		} else if !os.IsNotExist(err) {
			return Credentials{}, errors.Wrapf(errors.ErrConfigInvalid, err, "checking env file '%s'", envFile)
		}
	}
	for _, key := range []string{KeyHost, KeyUser, KeyPassword, KeyDatabase} {
		if err := v.BindEnv(key, key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return Credentials{}, errors.Wrapf(errors.ErrConfigInvalid, err, "binding %s", key)
		}
	}
	return Credentials{
		Host:     v.GetString(KeyHost),
		User:     v.GetString(KeyUser),
		Password: v.GetString(KeyPassword),
		Database: v.GetString(KeyDatabase),
	}, nil
}
