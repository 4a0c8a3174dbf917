/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/manager"
	"github.com/stasis-io/stasis/pkg/provider"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Capture a snapshot of a target container",
		ArgsUsage: "<target>",
		Description: `Capture the current state of a target container as a snapshot.

The target is validated with the configured provider before capture.
At most one snapshot per target can be in flight; a concurrent create
for the same target fails fast with a conflict.

# Examples

Snapshot a running container:
  stasis create web-1

Snapshot with context for a pipeline run:
  stasis create web-1 --trigger run_start --run-id run-42 --description "before migration"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "trigger",
				Usage: fmt.Sprintf("Trigger kind (supported values: %v)", snapshot.Triggers()),
				Value: snapshot.TriggerManual.String(),
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Free-form snapshot description",
			},
			&cli.StringSliceFlag{
				Name:    "label",
				Aliases: []string{"l"},
				Usage:   "Label to attach (format: key=value, can be repeated)",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Automation run identifier to record on the snapshot",
			},
			&cli.StringFlag{
				Name:  "action-name",
				Usage: "Automation action name to record on the snapshot",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			targetID := cmd.Args().First()
			if targetID == "" {
				return fmt.Errorf("target argument is required")
			}

			trigger := snapshot.Trigger(cmd.String("trigger"))
			if !trigger.IsValid() {
				return fmt.Errorf("invalid trigger: %q", cmd.String("trigger"))
			}

			labels, err := parseLabels(cmd.StringSlice("label"))
			if err != nil {
				return err
			}

			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			rec, err := mgr.Create(ctx, targetID, trigger, manager.CreateOptions{
				Description: cmd.String("description"),
				Labels:      labels,
				RunID:       cmd.String("run-id"),
				ActionName:  cmd.String("action-name"),
			})
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, rec)
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List snapshots",
		Description: `List snapshot records, optionally filtered by target, trigger, or
status. Tombstoned (deleted) records are excluded.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Usage: "Only snapshots of this target",
			},
			&cli.StringFlag{
				Name:  "trigger",
				Usage: "Only snapshots created by this trigger kind",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only snapshots in this status (creating, completed, failed)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			filter := snapshot.Filter{
				TargetID: cmd.String("target"),
				Trigger:  snapshot.Trigger(cmd.String("trigger")),
				Status:   snapshot.Status(cmd.String("status")),
			}
			if filter.Trigger != "" && !filter.Trigger.IsValid() {
				return fmt.Errorf("invalid trigger: %q", filter.Trigger)
			}
			if filter.Status != "" && !filter.Status.IsValid() {
				return fmt.Errorf("invalid status: %q", filter.Status)
			}

			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			records, err := mgr.List(ctx, filter)
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, records)
		},
	}
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one snapshot record",
		ArgsUsage: "<snapshot-id>",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("snapshot-id argument is required")
			}

			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			rec, err := mgr.Get(ctx, id)
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, rec)
		},
	}
}

func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore a snapshot into a new target",
		ArgsUsage: "<snapshot-id>",
		Description: `Restore a completed snapshot's artifact into a fresh target. The
source snapshot is never modified; each restore produces a new target
and increments the snapshot's restoration count.

# Examples

Restore into an auto-named target:
  stasis restore 2f9a1c

Restore into a named, started container:
  stasis restore 2f9a1c --name web-1-rollback --start`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for the restored target (provider-generated when empty)",
			},
			&cli.BoolFlag{
				Name:  "start",
				Usage: "Start the restored target after creation",
			},
			&cli.StringSliceFlag{
				Name:    "label",
				Aliases: []string{"l"},
				Usage:   "Label for the restored target (format: key=value, can be repeated)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("snapshot-id argument is required")
			}

			labels, err := parseLabels(cmd.StringSlice("label"))
			if err != nil {
				return err
			}

			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			targetID, err := mgr.Restore(ctx, id, cmd.String("name"), provider.RestoreOptions{
				Start:  cmd.Bool("start"),
				Labels: labels,
			})
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, struct {
				SnapshotID string `json:"snapshotId" yaml:"snapshotId"`
				TargetID   string `json:"targetId" yaml:"targetId"`
			}{SnapshotID: id, TargetID: targetID})
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a snapshot and its artifact",
		ArgsUsage: "<snapshot-id>",
		Description: `Remove a snapshot's artifact from the provider and tombstone its
record. Deleting an already-deleted snapshot is a no-op.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("snapshot-id argument is required")
			}

			mgr, _, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			return mgr.Delete(ctx, id)
		},
	}
}
