package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*Config, *pflag.FlagSet) {
	t.Helper()
	var cfg Config
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs, &cfg)
	require.NoError(t, fs.Parse(args))
	return &cfg, fs
}

func TestDefaults(t *testing.T) {
	cfg, _ := parse(t, "--token", "secret")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAddress, cfg.Address)
	assert.Equal(t, "json", cfg.Backend)
	assert.Equal(t, "dragdrop_storage", cfg.Name)
	assert.Equal(t, "/api/dragdrop_storage", cfg.LegacyPrefix)
	assert.Equal(t, "/api/drag_and_drop_card_backend", cfg.AliasPrefix)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestSetFlagsFromEnvVariables(t *testing.T) {
	t.Setenv("DRAGDROP_BACKEND", "sqlite")
	t.Setenv("DRAGDROP_TOKEN", "a,b")
	t.Setenv("DRAGDROP_DATA_DIR", "/from/env")

	cfg, fs := parse(t, "--data-dir", "/from/flag")
	require.NoError(t, SetFlagsFromEnvVariables(fs))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, []string{"a", "b"}, cfg.Tokens)
	// flags win over env
	assert.Equal(t, "/from/flag", cfg.DataDir)
}

func TestSetFlagsFromEnvVariablesInvalid(t *testing.T) {
	t.Setenv("DRAGDROP_MAX_BODY_BYTES", "lots")

	_, fs := parse(t)
	assert.Error(t, SetFlagsFromEnvVariables(fs))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
	}{
		{"valid", []string{"--token", "x"}, true},
		{"no token", nil, false},
		{"empty token", []string{"--token", ""}, false},
		{"unknown backend", []string{"--token", "x", "--backend", "redis"}, false},
		{"memory without data dir", []string{"--token", "x", "--backend", "memory", "--data-dir", ""}, true},
		{"json without data dir", []string{"--token", "x", "--data-dir", ""}, false},
		{"name with slash", []string{"--token", "x", "--name", "a/b"}, false},
		{"relative prefix", []string{"--token", "x", "--legacy-prefix", "api"}, false},
		{"same prefixes", []string{"--token", "x", "--legacy-prefix", "/api/x", "--alias-prefix", "/api/x/"}, false},
		{"zero body", []string{"--token", "x", "--max-body-bytes", "0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := parse(t, tt.args...)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateTrimsPrefixes(t *testing.T) {
	cfg, _ := parse(t, "--token", "x", "--legacy-prefix", "/legacy/", "--alias-prefix", "/alias//")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/legacy", cfg.LegacyPrefix)
	assert.Equal(t, "/alias", cfg.AliasPrefix)
}
