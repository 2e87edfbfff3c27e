// Package logging constructs the structured logger used across the server.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
)

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

type (
	Config struct {
		Verbosity int
		Format    string
	}

	Format string
)

// AddFlags adds logging flags to the given flagset; once the caller has parsed
// the flagset, cfg is populated.
func AddFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.IntVarP(&cfg.Verbosity, "v", "v", 0, "Logging level")
	flags.StringVar(&cfg.Format, "log-format", string(TextFormat), "Logging format: text or json")
}

// New constructs a logger writing to stderr.
func New(cfg Config) (logr.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter constructs a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (logr.Logger, error) {
	opts := &slog.HandlerOptions{
		Level:       toSlogLevel(cfg.Verbosity),
		ReplaceAttr: replaceLevel,
	}

	var h slog.Handler
	switch Format(cfg.Format) {
	case TextFormat, "":
		h = slog.NewTextHandler(w, opts)
	case JSONFormat:
		h = slog.NewJSONHandler(w, opts)
	default:
		return logr.Logger{}, fmt.Errorf("unrecognised logging format: %s", cfg.Format)
	}
	return logr.FromSlogHandler(h), nil
}

// toSlogLevel converts a logr v-level to a slog level. logr emits V(n) records
// at slog.Level(-n).
func toSlogLevel(verbosity int) slog.Level {
	if verbosity <= 0 {
		return slog.LevelInfo
	}
	return slog.Level(-verbosity)
}

// replaceLevel renders every level below info as DEBUG rather than INFO-n.
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl < slog.LevelInfo {
		a.Value = slog.StringValue("DEBUG")
	}
	return a
}
