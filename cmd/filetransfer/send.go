package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faadiallop/FileTransferServer/internal/cliconfig"
	"github.com/faadiallop/FileTransferServer/pkg/log"
	"github.com/faadiallop/FileTransferServer/pkg/sender"
)

const promptText = "File to transfer ('exit' to quit): "

func newSendCmd() *cobra.Command {
	cfg := cliconfig.DefaultSenderConfig()
	var cfgPath string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "send [file...]",
		Short: "Send files to a receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := changedFlags(cmd)

			fc, path, err := loadFileConfig(cfgPath)
			if err != nil {
				return err
			}
			if path != "" {
				if err := cliconfig.ApplySenderFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplySenderEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := cliconfig.NewLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			logger.Info("configuration",
				log.String("addr", cfg.Addr),
				log.Duration("dial_timeout", cfg.DialTimeout),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := sender.Dial(ctx, cfg.Addr,
				sender.WithLogger(logger),
				sender.WithDialTimeout(cfg.DialTimeout),
			)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := sendAll(ctx, c, args, logger); err != nil {
				return err
			}
			if interactive || len(args) == 0 {
				return promptLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), c)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.filetransfer/config.toml)")
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "receiver address")
	cmd.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connect timeout")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for files after sending the arguments")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

type fileSender interface {
	SendFile(ctx context.Context, path string) error
}

// sendAll sends every path in order. Unreadable paths are logged and
// skipped; a connection failure stops the run.
func sendAll(ctx context.Context, c fileSender, paths []string, logger log.Logger) error {
	var skipped int
	for _, p := range paths {
		err := c.SendFile(ctx, p)
		if errors.Is(err, sender.ErrInvalidPath) {
			logger.Warn("skipping file", log.String("path", p), log.Err(err))
			skipped++
			continue
		}
		if err != nil {
			return err
		}
	}
	if skipped > 0 {
		return fmt.Errorf("%d of %d files skipped", skipped, len(paths))
	}
	return nil
}

// promptLoop asks for file paths until "exit" or end of input. Invalid paths
// re-prompt.
func promptLoop(ctx context.Context, in io.Reader, out io.Writer, c fileSender) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptText)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		p := strings.TrimSpace(sc.Text())
		switch p {
		case "":
			continue
		case "exit":
			return nil
		}

		err := c.SendFile(ctx, p)
		if errors.Is(err, sender.ErrInvalidPath) {
			fmt.Fprintln(out, "Please enter a valid file path.")
			continue
		}
		if err != nil {
			return err
		}
	}
}
