/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/logging"
)

const (
	name           = "stasis"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML configuration file",
		Sources: cli.EnvVars("STASIS_CONFIG"),
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("STASIS_LOG_LEVEL"),
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to file instead of stdout",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Usage:   "Output format (json, yaml, table)",
		Value:   "table",
		Sources: cli.EnvVars("STASIS_FORMAT"),
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Usage:   "Container snapshot orchestration",
		Description: `stasis captures, persists, and restores point-in-time snapshots of
container state. Snapshots are recorded in a durable file-backed
metadata store and their artifacts live with the configured capture
provider (docker, ocidir, noop).

Results can be output in JSON, YAML, or table format.`,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			configFlag,
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			createCmd(),
			listCmd(),
			getCmd(),
			restoreCmd(),
			deleteCmd(),
			cleanupCmd(),
			statsCmd(),
			publishCmd(),
			watchCmd(),
		},
	}
}

// Execute runs the CLI. It is called by main.main() and handles
// SIGINT/SIGTERM for graceful shutdown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
