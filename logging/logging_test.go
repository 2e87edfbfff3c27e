package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		log       func(logger logr.Logger)
		want      string
	}{
		{
			"info",
			0,
			func(logger logr.Logger) {
				logger.Info("something", "foo", "bar")
			},
			"level=INFO msg=something foo=bar",
		},
		{
			"error",
			0,
			func(logger logr.Logger) {
				logger.Error(errors.New("woops"), "spilt me beer", "foo", "bar")
			},
			"level=ERROR msg=\"spilt me beer\" err=woops foo=bar",
		},
		{
			"debug",
			1,
			func(logger logr.Logger) {
				logger.V(1).Info("something", "foo", "bar")
			},
			"level=DEBUG msg=something foo=bar",
		},
		{
			"hide debug",
			0,
			func(logger logr.Logger) {
				logger.V(1).Info("should not see this", "foo", "bar")
			},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewWithWriter(Config{Verbosity: tt.verbosity}, &buf)
			require.NoError(t, err)

			tt.log(logger)

			// strip the leading time=... attribute
			got := buf.String()
			if i := strings.Index(got, "level="); i >= 0 {
				got = got[i:]
			}
			assert.Equal(t, tt.want, strings.TrimSpace(got))
		})
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hello", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"hello","n":1`)
}

func TestLoggerUnknownFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestToSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, toSlogLevel(0))
	assert.Equal(t, slog.Level(-1), toSlogLevel(1))
	assert.Equal(t, slog.Level(-2), toSlogLevel(2))
}
