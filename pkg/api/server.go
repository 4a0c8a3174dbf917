// Copyright (c) 2025, Stasis Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/stasis-io/stasis/pkg/config"
	"github.com/stasis-io/stasis/pkg/logging"
	"github.com/stasis-io/stasis/pkg/manager"
	"github.com/stasis-io/stasis/pkg/provider/factory"
	"github.com/stasis-io/stasis/pkg/server"
	"github.com/stasis-io/stasis/pkg/store"
)

const (
	name           = "stasisd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/stasis-io/stasis/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the snapshot daemon and blocks until shutdown. It wires
// the configured provider and store into the orchestrator, registers
// the API routes, and handles graceful shutdown. Pending async cleanup
// work is drained before returning.
func Serve(ctx context.Context, configPath string) error {
	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	p, err := factory.New(ctx, cfg)
	if err != nil {
		return err
	}

	s, err := store.NewFileStore(ctx, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("closing store", "error", cerr)
		}
	}()

	mgr, err := manager.New(p, s, cfg)
	if err != nil {
		return err
	}
	defer mgr.Wait()

	h := NewHandler(mgr, version)

	srvCfg := server.NewConfig()
	srvCfg.Name = name
	srvCfg.Version = version
	srvCfg.Handlers = h.Routes()
	if cfg.Server.Address != "" {
		srvCfg.Address = cfg.Server.Address
	}
	if cfg.Server.Port > 0 {
		srvCfg.Port = cfg.Server.Port
	}
	if cfg.Server.RateLimit > 0 {
		srvCfg.RateLimit = rate.Limit(cfg.Server.RateLimit)
	}
	if cfg.Server.RateLimitBurst > 0 {
		srvCfg.RateLimitBurst = cfg.Server.RateLimitBurst
	}

	if err := server.RunWithConfig(ctx, srvCfg); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}
