package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/faadiallop/FileTransferServer/internal/cliconfig"
	"github.com/faadiallop/FileTransferServer/pkg/ftserver"
	"github.com/faadiallop/FileTransferServer/pkg/log"
	"github.com/faadiallop/FileTransferServer/plugins/configwatcher"
)

func newServeCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve [max_connections]",
		Short: "Receive files from senders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := changedFlags(cmd)

			fc, path, err := loadFileConfig(cfgPath)
			if err != nil {
				return err
			}
			if path != "" {
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				cfg.ConfigPath = path
			}

			// Apply environment variables (FILETRANSFER_*)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// The positional argument is --max-connections
			if len(args) == 1 && !changed["max-connections"] {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("max_connections %q: %w", args[0], err)
				}
				cfg.MaxConnections = n
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			logger.Info("configuration", cfg.LogFields()...)

			return serve(cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.filetransfer/config.toml)")
	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to listen on")
	cmd.Flags().IntVar(&cfg.MaxConnections, "max-connections", cfg.MaxConnections, "maximum concurrent senders")
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for received files")
	cmd.Flags().StringVar(&cfg.OutputSuffix, "suffix", cfg.OutputSuffix, "suffix appended to received file names")
	cmd.Flags().IntVar(&cfg.MaxPayloadBytes, "max-payload", cfg.MaxPayloadBytes, "largest accepted frame payload in bytes")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "end sessions idle this long (0 disables)")
	cmd.Flags().DurationVar(&cfg.DrainTimeout, "drain-timeout", cfg.DrainTimeout, "how long shutdown waits for running sessions")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload max_connections when the config file changes")

	return cmd
}

func serve(cfg cliconfig.Config, logger log.Logger) error {
	opts := []ftserver.Option{ftserver.WithLogger(logger)}
	if cfg.WatchConfig {
		opts = append(opts, configwatcher.WithDefaultConfigWatcher())
	}

	s, err := ftserver.New(cfg.ServerConfig(), opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Wait for a signal or for the accept loop to fail
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-ctx.Done():
			logger.Info("received signal, stopping")
			break wait
		case <-ticker.C:
			if s.Status() == ftserver.StateCrashed {
				logger.Error("accept loop failed, draining sessions")
				if err := s.Stop(); err != nil {
					return fmt.Errorf("accept loop failed: stop server: %w", err)
				}
				return errors.New("accept loop failed")
			}
		}
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}
