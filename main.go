package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stevemurr/dragdrop-storage/config"
	"github.com/stevemurr/dragdrop-storage/handler"
	"github.com/stevemurr/dragdrop-storage/logging"
	"github.com/stevemurr/dragdrop-storage/store"
)

func main() {
	// Configure ^C to terminate program
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var cfg config.Config

	cmd := &cobra.Command{
		Use:           "dragdrop-storage",
		Short:         "Persistent JSON key-value store over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.SetFlagsFromEnvVariables(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	config.AddFlags(cmd.Flags(), &cfg)

	return cmd.ExecuteContext(ctx)
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	backend, err := store.Open(cfg.Backend, cfg.DataDir, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to create store (backend=%s): %w", cfg.Backend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error(err, "closing store")
		}
	}()

	kv := store.NewKV(cfg.Name, backend, logger)
	h := handler.New(logger, kv, handler.Options{
		LegacyPrefix:  cfg.LegacyPrefix,
		AliasPrefix:   cfg.AliasPrefix,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		Authenticator: handler.NewTokenAuthenticator(cfg.Tokens...),
	})
	server := handler.NewServer(logger, h, handler.ServerConfig{
		AllowedOrigins:       cfg.AllowedOrigins,
		EnableRequestLogging: cfg.RequestLogging,
	})

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	logger.Info("dragdrop storage starting",
		"address", ln.Addr().String(),
		"store", cfg.Backend,
		"data", cfg.DataDir,
		"legacy_prefix", cfg.LegacyPrefix,
		"alias_prefix", cfg.AliasPrefix)

	if err := server.Start(ctx, ln); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
