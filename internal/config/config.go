// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

// Package config loads medusa configuration from defaults, an optional YAML
// file, environment variables and command-line flags, in that order of
// precedence.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/medusa/medusa/internal/xdg"
)

// Default values.
const (
	DefaultConnectRetries = 5
	DefaultLogFormat      = "json"
	DefaultMetricsAddr    = "127.0.0.1:9100"

	// MinTokenSecretLen is the shortest accepted HMAC secret.
	MinTokenSecretLen = 16
)

// Environment variables that override file values.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTokenSecret = "MEDUSA_TOKEN_SECRET"
)

// Config is the complete medusa configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" json:"database,omitempty" jsonschema:"description=PostgreSQL connection settings"`
	Auth     AuthConfig     `koanf:"auth" json:"auth,omitempty" jsonschema:"description=Token signing settings"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
}

// DatabaseConfig configures the connection pool.
type DatabaseConfig struct {
	URL            string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL connection URL"`
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries,omitempty" jsonschema:"minimum=0,maximum=20"`
}

// AuthConfig holds the secret used to digest session tokens.
type AuthConfig struct {
	TokenSecret string `koanf:"token_secret" json:"token_secret,omitempty" jsonschema:"minLength=16"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
}

// MetricsConfig sets the observability listen address. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

var defaults = map[string]any{
	"database.connect_retries": DefaultConnectRetries,
	"log.format":               DefaultLogFormat,
	"metrics.addr":             DefaultMetricsAddr,
}

var envKeys = map[string]string{
	EnvDatabaseURL: "database.url",
	EnvTokenSecret: "auth.token_secret",
}

// flagKeys maps command-line flag names to config keys. The token secret has
// no flag so it never shows up in process listings.
var flagKeys = map[string]string{
	"database-url":    "database.url",
	"connect-retries": "database.connect_retries",
	"log-format":      "log.format",
	"metrics-addr":    "metrics.addr",
}

// BindFlags registers the config override flags on flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "PostgreSQL connection URL (overrides "+EnvDatabaseURL+")")
	flags.Uint64("connect-retries", DefaultConnectRetries, "database connection retries at startup")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
}

// Loader builds a Config. The zero value reads the real environment.
type Loader struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// DefaultPath returns the file used when no explicit path is given.
	// Defaults to xdg.ConfigFile. A missing default file is not an error.
	DefaultPath func() (string, error)
}

// Load reads configuration using the real environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	return (&Loader{}).Load(path, flags)
}

// Load merges defaults, the YAML file at path, environment overrides and
// any flags set on flags. flags may be nil.
func (l *Loader) Load(path string, flags *pflag.FlagSet) (*Config, error) {
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	path, err := l.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	for env, key := range envKeys {
		if val, ok := lookup(env); ok && val != "" {
			if err := k.Set(key, val); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return &cfg, nil
}

// resolvePath returns the file to load, or "" when there is none. An
// explicit path must exist.
func (l *Loader) resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	defaultPath := l.DefaultPath
	if defaultPath == nil {
		defaultPath = xdg.ConfigFile
	}
	candidate, err := defaultPath()
	if err != nil {
		// No resolvable home directory means no default file.
		return "", nil //nolint:nilerr // default file is optional
	}
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_LOAD_FAILED").With("path", candidate).Wrap(err)
	}
	return candidate, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	provider := file.Provider(path)
	data, err := provider.ReadBytes()
	if err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateYAML(data); err != nil {
		return oops.With("path", path).Wrap(err)
	}
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// ValidateDatabase checks the settings needed to reach the database.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (set database.url or %s)", EnvDatabaseURL)
	}
	return nil
}

// Validate checks that the configuration is complete enough to serve.
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if c.Auth.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("token secret is required (set auth.token_secret or %s)", EnvTokenSecret)
	}
	if len(c.Auth.TokenSecret) < MinTokenSecretLen {
		return oops.Code("CONFIG_INVALID").
			With("min_length", MinTokenSecretLen).
			Errorf("token secret is too short")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}
