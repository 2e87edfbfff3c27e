// Package config holds the server configuration, populated from flags and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/stevemurr/dragdrop-storage/handler"
	"github.com/stevemurr/dragdrop-storage/logging"
	"github.com/stevemurr/dragdrop-storage/store"
)

const (
	// EnvironmentVariablePrefix prefixes the env var equivalent of every flag.
	EnvironmentVariablePrefix = "DRAGDROP_"

	DefaultAddress = ":8080"
	DefaultDataDir = "./data"
	DefaultBackend = "json"
)

type Config struct {
	Address string `validate:"required"`
	DataDir string `validate:"required_unless=Backend memory"`
	Backend string `validate:"oneof=json sqlite memory"`
	Name    string `validate:"required,excludesall=/\\"`

	// Tokens are the bearer tokens accepted by the API.
	Tokens []string `validate:"required,min=1,dive,required"`

	LegacyPrefix string `validate:"required,startswith=/,nefield=AliasPrefix"`
	AliasPrefix  string `validate:"required,startswith=/"`

	AllowedOrigins []string
	MaxBodyBytes   int64 `validate:"gt=0"`
	RequestLogging bool

	Logging logging.Config
}

// AddFlags adds flags to the given flagset; once the caller has parsed the
// flagset, cfg is populated.
func AddFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.StringVar(&cfg.Address, "address", DefaultAddress, "Listening address")
	flags.StringVar(&cfg.DataDir, "data-dir", DefaultDataDir, "Directory holding the snapshot")
	flags.StringVar(&cfg.Backend, "backend", DefaultBackend, "Snapshot backend: json, sqlite or memory")
	flags.StringVar(&cfg.Name, "name", store.DefaultName, "Snapshot name")
	flags.StringSliceVar(&cfg.Tokens, "token", nil, "Bearer token accepted by the API (repeatable)")
	flags.StringVar(&cfg.LegacyPrefix, "legacy-prefix", handler.DefaultLegacyPrefix, "Legacy route prefix")
	flags.StringVar(&cfg.AliasPrefix, "alias-prefix", handler.DefaultAliasPrefix, "Namespaced route prefix")
	flags.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", []string{"*"}, "Origins allowed by CORS")
	flags.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", handler.DefaultMaxBodyBytes, "Maximum size of a document")
	flags.BoolVar(&cfg.RequestLogging, "request-logging", true, "Log every request")

	logging.AddFlags(flags, &cfg.Logging)
}

// SetFlagsFromEnvVariables sets each flag not given on the command line from
// an env variable whose name starts with `DRAGDROP_`, e.g. --data-dir from
// DRAGDROP_DATA_DIR.
func SetFlagsFromEnvVariables(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		if val, present := os.LookupEnv(flagToEnvVarName(f)); present {
			if setErr := fs.Set(f.Name, val); setErr != nil {
				err = fmt.Errorf("setting %s from environment: %w", f.Name, setErr)
			}
		}
	})
	return err
}

func flagToEnvVarName(f *pflag.Flag) string {
	return EnvironmentVariablePrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
}

// Validate normalises and checks the config.
func (c *Config) Validate() error {
	c.LegacyPrefix = strings.TrimRight(c.LegacyPrefix, "/")
	c.AliasPrefix = strings.TrimRight(c.AliasPrefix, "/")

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
