// Package config manages environment variables.
//
// It reads variables from an optional settings file (`.env` by default),
// then loads them from the process environment into structured Go types.
//
// Responsibilities:
//   - Load the settings file into the process environment (once, before reading).
//   - Map DB_* variables into DatabaseConfig without validating them.
//   - Map REPORT_* variables into ObservabilityConfig, apply defaults and validate.
//
// Database settings are passed through untouched: an absent DB_HOST is an
// empty string here and only becomes a problem when the driver connects.
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/deppfellow/orders-report/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Key mapping used below:
	- Env vars are read per prefix: DB_ for the connection, REPORT_ for the rest.
	- Keys are lowercased and the first "_" becomes the "." nesting delimiter:
	    DB_HOST          -> db.host          -> Config.Database.Host
	    REPORT_LOG_LEVEL -> report.log_level -> Config.Observability.LogLevel
*/

// DefaultSettingsFile is read when no other settings file is given.
const DefaultSettingsFile = ".env"

// utf8BOM is stripped from the start of the settings file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Config is the root configuration object.
//
// It is built once in main and handed to the database driver and the
// logger; nothing below main reads the environment on its own.
type Config struct {
	Database      DatabaseConfig       `koanf:"db"`
	Observability *ObservabilityConfig `koanf:"report"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
//
// All fields are plain strings on purpose, Port included: no coercion happens
// at load time, the client library parses them when connecting.
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// ConnString renders the keyword/value connection string understood by pgx.
//
// Empty settings are left out so the client falls back to its own defaults
// (PGHOST, PGPORT, ..., then localhost:5432).
func (c DatabaseConfig) ConnString() string {
	params := []struct{ key, value string }{
		{"host", c.Host},
		{"port", c.Port},
		{"dbname", c.Name},
		{"user", c.User},
		{"password", c.Password},
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteValue(p.value))
	}
	return strings.Join(parts, " ")
}

// quoteValue wraps a value in single quotes, escaping backslashes and quotes
// the way libpq expects.
func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// LoadSettingsFile reads a key=value settings file into the process environment.
//
// Behavior:
//   - A missing file is fine: nothing is loaded.
//   - A leading UTF-8 byte-order mark is ignored.
//   - Variables already set in the environment are not overridden.
//
// A file that exists but cannot be read is a KindSystem error; a file that
// cannot be parsed is a KindData error.
func LoadSettingsFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errs.New(errs.KindSystem, "load settings file", err)
	}

	values, err := godotenv.Parse(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	if err != nil {
		return errs.New(errs.KindData, "parse settings file", err)
	}

	for key, value := range values {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return errs.New(errs.KindSystem, "load settings file", err)
		}
	}
	return nil
}

// Load builds the Config.
//
// Behavior summary:
//   - Loads settingsFile into the environment (see LoadSettingsFile)
//   - Loads DB_* and REPORT_* env vars into koanf
//   - Unmarshals into Config
//   - Applies observability defaults and validates them
//
// Database settings are never validated here.
func Load(settingsFile string) (*Config, error) {
	if err := LoadSettingsFile(settingsFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	for _, prefix := range []string{"DB_", "REPORT_"} {
		if err := k.Load(env.Provider(prefix, ".", envKey), nil); err != nil {
			return nil, errs.New(errs.KindSystem, "load environment", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errs.New(errs.KindData, "decode configuration", err)
	}

	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	} else {
		cfg.Observability.applyDefaults()
	}
	cfg.Observability.ServiceName = ServiceName

	if err := validator.New().Struct(cfg.Observability); err != nil {
		return nil, errs.New(errs.KindData, "validate configuration", err)
	}

	return cfg, nil
}

// envKey maps DB_HOST to db.host and REPORT_LOG_LEVEL to report.log_level.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(s), "_", ".", 1)
}
