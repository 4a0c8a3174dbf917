/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/retention"
)

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Run a retention pass",
		Description: `Evict snapshots exceeding the configured retention limits. Flags
override the configured limits for this pass only; a zero flag leaves
the configured value in effect.

# Examples

Run with configured limits:
  stasis cleanup

Keep at most 3 snapshots per target for this pass:
  stasis cleanup --max-per-target 3`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-per-target",
				Usage: "Keep at most this many completed snapshots per target",
			},
			&cli.IntFlag{
				Name:  "max-total",
				Usage: "Keep at most this many completed snapshots system-wide",
			},
			&cli.IntFlag{
				Name:  "max-age-days",
				Usage: "Evict snapshots older than this many days",
			},
			&cli.IntFlag{
				Name:  "max-total-bytes",
				Usage: "Keep total completed snapshot storage under this many bytes",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			override := retention.Policy{
				MaxPerTarget:  int(cmd.Int("max-per-target")),
				MaxTotal:      int(cmd.Int("max-total")),
				MaxAge:        time.Duration(cmd.Int("max-age-days")) * 24 * time.Hour,
				MaxTotalBytes: int64(cmd.Int("max-total-bytes")),
			}

			var overridePtr *retention.Policy
			if override.Enabled() {
				overridePtr = &override
			}

			evicted, err := mgr.Cleanup(ctx, overridePtr)
			if err != nil {
				return err
			}
			if evicted == nil {
				evicted = []string{}
			}

			return writeOut(ctx, cmd, struct {
				Count   int      `json:"count" yaml:"count"`
				Evicted []string `json:"evicted" yaml:"evicted"`
			}{Count: len(evicted), Evicted: evicted})
		},
	}
}

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate snapshot statistics",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			stats, err := mgr.Stats(ctx)
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, stats)
		},
	}
}
