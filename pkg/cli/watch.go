/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/trigger"
	"github.com/stasis-io/stasis/pkg/trigger/kube"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch Kubernetes pods and snapshot their containers on lifecycle changes",
		Description: `Run a pod watcher that translates pod phase changes into snapshot
triggers: a pod entering Running fires run_start, Succeeded fires
run_end, and Failed fires on_error. Only trigger kinds enabled in the
configuration produce snapshots; trigger-driven creates honor the
configured per-target rate limit.

The watcher connects with the given kubeconfig, falling back to
KUBECONFIG, ~/.kube/config, and finally the in-cluster service
account. It blocks until interrupted.

# Examples

Watch a single namespace:
  stasis watch --namespace workloads

Watch the whole cluster with an explicit kubeconfig:
  stasis watch --kubeconfig ~/.kube/prod-config`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kubeconfig",
				Usage:   "Path to the kubeconfig file (empty for in-cluster)",
				Sources: cli.EnvVars("STASIS_KUBECONFIG"),
			},
			&cli.StringFlag{
				Name:    "namespace",
				Usage:   "Namespace to watch (empty for all namespaces)",
				Sources: cli.EnvVars("STASIS_NAMESPACE"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mgr, cfg, closer, err := newManager(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer()

			client, err := kube.BuildClient(cmd.String("kubeconfig"))
			if err != nil {
				return err
			}

			adapter := trigger.New(mgr,
				trigger.WithRateLimit(cfg.Triggers.RatePerMinute, cfg.Triggers.Burst))

			w, err := kube.NewWatcher(client, adapter, cmd.String("namespace"))
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
}
