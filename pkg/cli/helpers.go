/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/config"
	"github.com/stasis-io/stasis/pkg/manager"
	"github.com/stasis-io/stasis/pkg/provider/factory"
	"github.com/stasis-io/stasis/pkg/serializer"
	"github.com/stasis-io/stasis/pkg/store"
)

// newManager wires the configured provider and store into an
// orchestrator. The returned closer drains pending cleanup work and
// releases the store lock.
func newManager(ctx context.Context, cmd *cli.Command) (*manager.Manager, *config.Config, func(), error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := factory.New(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := store.NewFileStore(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	mgr, err := manager.New(p, s, cfg)
	if err != nil {
		_ = s.Close()
		return nil, nil, nil, err
	}

	closer := func() {
		mgr.Wait()
		if cerr := s.Close(); cerr != nil {
			slog.Warn("closing store", "error", cerr)
		}
	}
	return mgr, cfg, closer, nil
}

// parseFormat validates the --format flag.
func parseFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %s)",
			f, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}

// writeOut serializes v per the --format and --output flags.
func writeOut(ctx context.Context, cmd *cli.Command, v any) error {
	f, err := parseFormat(cmd)
	if err != nil {
		return err
	}

	w := serializer.NewFileWriterOrStdout(f, cmd.String("output"))
	defer func() {
		if c, ok := w.(serializer.Closer); ok {
			_ = c.Close()
		}
	}()

	return w.Serialize(ctx, v)
}

// parseLabels converts repeated key=value flags to a map.
func parseLabels(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	labels := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid label %q, expected key=value", pair)
		}
		labels[key] = value
	}
	return labels, nil
}
