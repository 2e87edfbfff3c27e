package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--help"}, &out))
	assert.Contains(t, out.String(), "dragdrop-storage")
	assert.Contains(t, out.String(), "--legacy-prefix")
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing token", []string{"--backend", "memory"}},
		{"unknown backend", []string{"--token", "x", "--backend", "redis"}},
		{"unknown flag", []string{"--token", "x", "--nope"}},
		{"positional args", []string{"--token", "x", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &out))
		})
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := run(ctx, []string{
		"--token", "x",
		"--backend", "json",
		"--data-dir", t.TempDir(),
		"--address", "127.0.0.1:0",
	}, &out)
	assert.NoError(t, err)
}
