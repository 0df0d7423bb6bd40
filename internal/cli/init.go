// Package cli wires configuration, logging and storage into the
// expense-tracker command tree.
package cli

import (
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

// LoadEnvFile loads the .env file from the working directory.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the command-line logger at the configured level and
// makes it the slog default. Logs go to w, never to command output.
func SetupLogger(cfg *config.Config, w io.Writer) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = level
	logCfg.Component = applog.ComponentCLI
	if w != nil {
		logCfg.Output = w
	}

	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig reads the environment, applies any flags the user set
// explicitly and validates the result.
func LoadAndValidateConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Load()
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags that were given on the command line.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) {
	if flags == nil {
		return
	}
	overrides := map[string]*string{
		flagFile:     &cfg.ExpensesFile,
		flagBackend:  &cfg.DataBackend,
		flagDB:       &cfg.SQLiteDBPath,
		flagLogLevel: &cfg.LogLevel,
	}
	for name, dst := range overrides {
		if !flags.Changed(name) {
			continue
		}
		if v, err := flags.GetString(name); err == nil {
			*dst = v
		}
	}
}
