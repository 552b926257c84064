package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := loadOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, ":5050", opts.Addr)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Empty(t, opts.Username)
}

func TestLoadOptionsFlagsAndEnv(t *testing.T) {
	t.Setenv("COORDINATOR_USERNAME", "unit")
	t.Setenv("COORDINATOR_PASSWORD", "secret")

	opts, err := loadOptions([]string{"--addr", ":9000", "--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", opts.Addr)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "unit", opts.Username)
	assert.Equal(t, "secret", opts.Password)
}

func TestLoadOptionsBadFlag(t *testing.T) {
	_, err := loadOptions([]string{"--nope"})
	assert.Error(t, err)
}
