// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medusa/medusa/pkg/errutil"
)

const testSecret = "0123456789abcdef0123"

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func noDefaultFile() (string, error) { return "/nonexistent/medusa/config.yaml", nil }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	l := &Loader{LookupEnv: env(nil), DefaultPath: noDefaultFile}

	cfg, err := l.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultConnectRetries), cfg.Database.ConnectRetries)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Auth.TokenSecret)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/db
  connect_retries: 2
auth:
  token_secret: from-file-secret-value
log:
  format: text
metrics:
  addr: 127.0.0.1:9200
`)

	tests := []struct {
		name       string
		env        map[string]string
		args       []string
		wantURL    string
		wantSecret string
		wantFormat string
		wantAddr   string
	}{
		{
			name:       "file only",
			wantURL:    "postgres://file/db",
			wantSecret: "from-file-secret-value",
			wantFormat: "text",
			wantAddr:   "127.0.0.1:9200",
		},
		{
			name:       "env beats file",
			env:        map[string]string{EnvDatabaseURL: "postgres://env/db", EnvTokenSecret: testSecret},
			wantURL:    "postgres://env/db",
			wantSecret: testSecret,
			wantFormat: "text",
			wantAddr:   "127.0.0.1:9200",
		},
		{
			name:       "flags beat env",
			env:        map[string]string{EnvDatabaseURL: "postgres://env/db"},
			args:       []string{"--database-url=postgres://flag/db", "--log-format=json", "--metrics-addr="},
			wantURL:    "postgres://flag/db",
			wantSecret: "from-file-secret-value",
			wantFormat: "json",
			wantAddr:   "",
		},
		{
			name:       "unset flags keep file values",
			args:       []string{},
			wantURL:    "postgres://file/db",
			wantSecret: "from-file-secret-value",
			wantFormat: "text",
			wantAddr:   "127.0.0.1:9200",
		},
		{
			name:       "empty env is ignored",
			env:        map[string]string{EnvDatabaseURL: ""},
			wantURL:    "postgres://file/db",
			wantSecret: "from-file-secret-value",
			wantFormat: "text",
			wantAddr:   "127.0.0.1:9200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{LookupEnv: env(tt.env), DefaultPath: noDefaultFile}
			cfg, err := l.Load(path, newFlags(t, tt.args...))
			require.NoError(t, err)

			assert.Equal(t, tt.wantURL, cfg.Database.URL)
			assert.Equal(t, tt.wantSecret, cfg.Auth.TokenSecret)
			assert.Equal(t, tt.wantFormat, cfg.Log.Format)
			assert.Equal(t, tt.wantAddr, cfg.Metrics.Addr)
			assert.Equal(t, uint64(2), cfg.Database.ConnectRetries)
		})
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://default/db\n")
	l := &Loader{
		LookupEnv:   env(nil),
		DefaultPath: func() (string, error) { return path, nil },
	}

	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://default/db", cfg.Database.URL)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	l := &Loader{LookupEnv: env(nil), DefaultPath: noDefaultFile}

	_, err := l.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_SchemaViolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown top-level key", "server:\n  port: 1\n"},
		{"unknown nested key", "database:\n  host: db\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"short secret", "auth:\n  token_secret: short\n"},
		{"retries out of range", "database:\n  connect_retries: 100\n"},
		{"wrong type", "database:\n  connect_retries: many\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{LookupEnv: env(nil), DefaultPath: noDefaultFile}
			_, err := l.Load(writeConfig(t, tt.content), nil)
			errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	l := &Loader{LookupEnv: env(nil), DefaultPath: noDefaultFile}
	_, err := l.Load(writeConfig(t, "database: [unterminated\n"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://localhost/medusa"},
			Auth:     AuthConfig{TokenSecret: testSecret},
			Log:      LogConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"text format", func(c *Config) { c.Log.Format = "text" }, false},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, true},
		{"missing secret", func(c *Config) { c.Auth.TokenSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.TokenSecret = "too-short" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_ValidateDatabase_IgnoresAuth(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{URL: "postgres://localhost/medusa"}}
	assert.NoError(t, cfg.ValidateDatabase())
	assert.Error(t, cfg.Validate())
}
