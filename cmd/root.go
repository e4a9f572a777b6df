// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/molecula/tabingest/config"
	"github.com/molecula/tabingest/ctl"
)

var Ingester *ctl.IngestCommand

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	Ingester = ctl.NewIngestCommand(stdin, stdout, stderr)
	rc := &cobra.Command{
		Use:   "tabingest",
		Short: "Ingest a database table into raw, train and test CSV files.",
		Long: `Ingest a database table into raw, train and test CSV files.

The whole table is read with a single query and written unchanged to
raw_data.csv in the data directory. It is then split 80/20, with a fixed
seed, into train.csv and test.csv.

Database credentials are read from the environment (host, user, password,
db) or from the dotenv file named by --env-file. Other settings may be
given as flags, as TABINGEST_* environment variables, or in a TOML file
named by --config, in that order of priority.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			return setAllConfig(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dry, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return fmt.Errorf("problem getting dry-run flag: %v", err)
			}
			if dry {
				return nil
			}
			return Ingester.Run(context.Background())
		},
	}
	rc.PersistentFlags().Bool("dry-run", false, "stop before executing")
	_ = rc.PersistentFlags().MarkHidden("dry-run")
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")

	flags := rc.Flags()
	flags.StringVarP(&Ingester.DataDir, "data-dir", "d", Ingester.DataDir, "Directory the raw, train and test datasets are written to.")
	flags.StringVar(&Ingester.LogDir, "log-dir", Ingester.LogDir, "Directory for daily log files. Empty logs to stderr only.")
	flags.StringVar(&Ingester.EnvFile, "env-file", Ingester.EnvFile, "Dotenv file holding the database credentials.")
	flags.StringVar(&Ingester.Driver, "driver", Ingester.Driver, "Database driver: mysql, postgres, pgx, sqlserver or sqlite.")
	flags.StringVarP(&Ingester.Table, "table", "t", Ingester.Table, "Table to read.")
	flags.StringVar(&Ingester.MetricsFile, "metrics-file", "", "Write run counters to this file in the prometheus text format.")
	flags.BoolVarP(&Ingester.Verbose, "verbose", "v", false, "Enable debug logging.")

	rc.SetOutput(stderr)
	rc.SetOut(stdout)
	return rc
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes replaced by underscores, and prefixed with
// config.EnvPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
		for _, key := range v.AllKeys() {
			if !validTags[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		// Flags set on the command line already hold the highest priority
		// value.
		if flagErr != nil || f.Changed {
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}
