// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "user", "token", "config"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "config flag",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "config flag with equals",
			args:     []string{"--config=/etc/medusa.yaml", "--help"},
			wantFlag: "/etc/medusa.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_OverrideFlagsArePersistent(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"database-url", "connect-retries", "log-format", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
	assert.Nil(t, cmd.PersistentFlags().Lookup("token-secret"), "the token secret must not be a flag")
}

func TestParseID(t *testing.T) {
	_, err := parseID("tenant", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant is required")

	_, err = parseID("tenant", "not-a-ulid")
	require.Error(t, err)

	id, err := parseID("tenant", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", id.String())
}
