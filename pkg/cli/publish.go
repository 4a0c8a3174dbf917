/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/config"
	"github.com/stasis-io/stasis/pkg/oci"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

func publishCmd() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a snapshot payload directory to an OCI registry",
		ArgsUsage: "<source-dir> <oci://registry/repository[:tag]>",
		Description: `Pack a snapshot payload directory as an OCI artifact and push it to
a registry using ORAS. The destination is an oci:// URI; registry
credentials come from the Docker credential store (docker login).

When --snapshot is given, the record's ID and target are stamped as
manifest annotations, and a destination without a tag gets one derived
from the configured tag pattern.

# Examples

Publish to GitHub Container Registry:
  stasis publish ./snapshots/web-1 oci://ghcr.io/acme/snapshots:web-1-backup

Publish a recorded snapshot to a local registry, tag from the pattern:
  stasis publish ./snapshots/web-1 oci://localhost:5000/snapshots \
    --snapshot 2f9a1c --plain-http`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Snapshot ID whose metadata to stamp on the artifact",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "Skip TLS certificate verification",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sourceDir := cmd.Args().Get(0)
			destination := cmd.Args().Get(1)
			if sourceDir == "" || destination == "" {
				return fmt.Errorf("source-dir and destination arguments are required")
			}

			ref, err := oci.ParseTarget(destination)
			if err != nil {
				return err
			}
			if !ref.IsOCI {
				return fmt.Errorf("destination %q is not an OCI reference, expected %sregistry/repository[:tag]",
					destination, oci.URIScheme)
			}

			opts := oci.PushOptions{
				SourceDir:   sourceDir,
				Registry:    ref.Registry,
				Repository:  ref.Repository,
				Tag:         ref.Tag,
				PlainHTTP:   cmd.Bool("plain-http"),
				InsecureTLS: cmd.Bool("insecure"),
			}

			if snapshotID := cmd.String("snapshot"); snapshotID != "" {
				mgr, cfg, closer, err := newManager(ctx, cmd)
				if err != nil {
					return err
				}
				defer closer()

				rec, err := mgr.Get(ctx, snapshotID)
				if err != nil {
					return err
				}

				opts.SnapshotID = rec.ID
				opts.TargetID = rec.TargetID
				if opts.Tag == "" {
					opts.Tag, err = patternTag(cfg, rec)
					if err != nil {
						return err
					}
				}
			}

			start := time.Now()
			result, err := oci.Push(ctx, opts)
			if err != nil {
				return err
			}

			return writeOut(ctx, cmd, struct {
				Reference string `json:"reference" yaml:"reference"`
				Digest    string `json:"digest" yaml:"digest"`
				Elapsed   string `json:"elapsed" yaml:"elapsed"`
			}{
				Reference: result.Reference,
				Digest:    result.Digest,
				Elapsed:   time.Since(start).Round(time.Millisecond).String(),
			})
		},
	}
}

// patternTag derives an image tag for the record from the configured
// tag pattern.
func patternTag(cfg *config.Config, rec *snapshot.Record) (string, error) {
	pattern, err := oci.NewTagPattern(cfg.Provider.TagPattern)
	if err != nil {
		return "", err
	}
	name := rec.TargetName
	if name == "" {
		name = rec.TargetID
	}
	return pattern.Expand(name, rec.Trigger.String(), rec.ID, rec.CreatedAt), nil
}
