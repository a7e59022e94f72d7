package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"master.quakeworld.nu:27000",
		"master.quakeservers.net:27000",
		"qwmaster.ocrete.ca:27000",
		"qwmaster.fodquake.net:27000",
	}, cfg.Query.Masters)
	assert.Equal(t, 2*time.Second, cfg.Query.Timeout)
	assert.Equal(t, 8192, cfg.Query.BufferSize)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.False(t, cfg.Server.Serve)
	assert.Equal(t, "masterstat.db", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestParseArgsMasters(t *testing.T) {
	cfg, err := ParseArgs([]string{"-m", "127.0.0.1:27000", "--master", "qw.example.org:27000", "-T", "500ms", "--format", "json"})
	require.NoError(t, err)

	assert.Equal(t, []string{"127.0.0.1:27000", "qw.example.org:27000"}, cfg.Query.Masters)
	assert.Equal(t, 500*time.Millisecond, cfg.Query.Timeout)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestParseArgsNamespaces(t *testing.T) {
	cfg, err := ParseArgs([]string{"--db-path", "x.db", "--geoip-interval", "1h", "--log-level", "debug", "--rate-limit-hard-count", "3"})
	require.NoError(t, err)

	assert.Equal(t, "x.db", cfg.Storage.Path)
	assert.Equal(t, time.Hour, cfg.GeoIP.Interval)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 3, cfg.RateLimit.HardLimitCount)
}

func TestParseArgsEnv(t *testing.T) {
	t.Setenv("MASTERSTAT_MASTERS", "a.example:27000,b.example:27000")
	t.Setenv("MASTERSTAT_DB_PATH", "env.db")

	cfg, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example:27000", "b.example:27000"}, cfg.Query.Masters)
	assert.Equal(t, "env.db", cfg.Storage.Path)
}

func TestParseArgsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"serve without token", []string{"--serve"}},
		{"serve with zero timeout", []string{"--serve", "-t", "x", "-T", "0"}},
		{"serve with zero rate count", []string{"--serve", "-t", "x", "--rate-limit-hard-count", "0"}},
		{"serve with zero rate window", []string{"--serve", "-t", "x", "--rate-limit-hard-window", "0s"}},
		{"negative timeout", []string{"-T", "-1s"}},
		{"tiny buffer", []string{"--buffer-size", "6"}},
		{"unknown format", []string{"--format", "xml"}},
		{"unknown flag", []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsServe(t *testing.T) {
	cfg, err := ParseArgs([]string{"--serve", "-t", "secret", "-i", "1m"})
	require.NoError(t, err)
	assert.True(t, cfg.Server.Serve)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
	assert.Equal(t, time.Minute, cfg.Server.Interval)
}

func TestParseArgsZeroTimeoutOneShot(t *testing.T) {
	cfg, err := ParseArgs([]string{"-T", "0"})
	require.NoError(t, err)
	assert.Zero(t, cfg.Query.Timeout)
}

func TestValidateNoMasters(t *testing.T) {
	cfg := Config{Query: Query{BufferSize: 8192}}
	assert.Error(t, cfg.Validate())
}
