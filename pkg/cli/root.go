/*
Copyright © 2025 Platform9 Systems
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/platform9/pcddebug/pkg/logging"
)

const name = "pcddebug"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// New builds the root command tree.
func New() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Collect diagnostics from a Platform9 cloud control plane",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				slog.String("version", version),
				slog.String("commit", commit),
				slog.String("date", date))
			return ctx, nil
		},
		Commands: []*cli.Command{
			collectCmd(),
		},
	}
}

// Execute runs the CLI. SIGINT/SIGTERM cancel the run context so
// in-flight subprocesses are stopped; already written artifacts are
// kept as-is.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := New().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
