package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molecula/tabingest/config"
	"github.com/molecula/tabingest/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv empties every credential variable for the duration of the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{config.KeyHost, config.KeyUser, config.KeyPassword, config.KeyDatabase} {
		t.Setenv(key, "")
		t.Setenv(config.EnvPrefix+"_"+strings.ToUpper(key), "")
	}
}

func TestLoadCredentialsEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("host=db.local\nuser=reader\npassword=secret\ndb=bookings\n"), 0600))

	creds, err := config.LoadCredentials(envFile)
	require.NoError(t, err)
	assert.Equal(t, config.Credentials{Host: "db.local", User: "reader", Password: "secret", Database: "bookings"}, creds)
	assert.NoError(t, creds.Validate("mysql"))
}

func TestLoadCredentialsEnvironmentWins(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("host=from-file\ndb=file-db\n"), 0600))
	t.Setenv("host", "from-env")
	t.Setenv("TABINGEST_DB", "prefixed-db")

	creds, err := config.LoadCredentials(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", creds.Host)
	assert.Equal(t, "prefixed-db", creds.Database)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("db", "only-db")
	creds, err := config.LoadCredentials(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, config.Credentials{Database: "only-db"}, creds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		creds   config.Credentials
		missing string
	}{
		{
			name:    "empty",
			driver:  "mysql",
			missing: "host, user, password, db",
		},
		{
			name:    "noPassword",
			driver:  "postgres",
			creds:   config.Credentials{Host: "h", User: "u", Database: "d"},
			missing: "password",
		},
		{
			name:   "sqliteNeedsOnlyDB",
			driver: "sqlite",
			creds:  config.Credentials{Database: "/tmp/x.db"},
		},
		{
			name:    "sqliteNoDB",
			driver:  "sqlite",
			missing: "db",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.creds.Validate(test.driver)
			if test.missing == "" {
				assert.NoError(t, err)
				return
			}
			if !errors.Is(err, errors.ErrConfigInvalid) {
				t.Fatalf("expected config invalid, got %v", err)
			}
			assert.Contains(t, err.Error(), "missing database credentials: "+test.missing+" ")
		})
	}
}

func TestCredentialsStringRedacts(t *testing.T) {
	s := config.Credentials{Host: "h", User: "u", Password: "hunter2", Database: "d"}.String()
	assert.NotContains(t, s, "hunter2")
	assert.Equal(t, "host=h user=u password=**** db=d", s)
}
