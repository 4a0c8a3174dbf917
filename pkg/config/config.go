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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/oci"
	"github.com/stasis-io/stasis/pkg/retention"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// Cleanup modes.
const (
	CleanupModeSync  = "sync"
	CleanupModeAsync = "async"
)

// Provider kinds selectable in config.
const (
	ProviderDocker = "docker"
	ProviderOCIDir = "ocidir"
	ProviderNoop   = "noop"
)

// Config is the full daemon/CLI configuration, loadable from YAML with
// environment variable overrides (STASIS_ prefix).
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Provider  Provider  `yaml:"provider"`
	Retention Retention `yaml:"retention"`
	Cleanup   Cleanup   `yaml:"cleanup"`
	Triggers  Triggers  `yaml:"triggers"`
	Server    Server    `yaml:"server"`
}

// Storage configures the metadata store.
type Storage struct {
	// Path is the base directory for record bodies and the index.
	Path string `yaml:"path"`
}

// Provider selects and configures the capture provider.
type Provider struct {
	// Kind is one of docker, ocidir, noop.
	Kind string `yaml:"kind"`
	// LayoutPath is the OCI layout root for the ocidir provider.
	LayoutPath string `yaml:"layoutPath"`
	// TagPattern names captured artifacts; placeholders {target},
	// {trigger}, {ts}, {id}.
	TagPattern string `yaml:"tagPattern"`
}

// Retention configures the eviction policy applied after creates and by
// explicit cleanup.
type Retention struct {
	MaxPerTarget  int   `yaml:"maxPerTarget"`
	MaxTotal      int   `yaml:"maxTotal"`
	MaxAgeDays    int   `yaml:"maxAgeDays"`
	MaxTotalBytes int64 `yaml:"maxTotalBytes"`
}

// Policy converts the YAML-friendly fields into a retention.Policy.
func (r Retention) Policy() retention.Policy {
	return retention.Policy{
		MaxPerTarget:  r.MaxPerTarget,
		MaxTotal:      r.MaxTotal,
		MaxAge:        time.Duration(r.MaxAgeDays) * 24 * time.Hour,
		MaxTotalBytes: r.MaxTotalBytes,
	}
}

// Cleanup configures when the retention pass runs relative to create.
type Cleanup struct {
	// Mode is sync (inline in create) or async (background goroutine).
	Mode string `yaml:"mode"`
}

// Triggers configures which lifecycle triggers produce snapshots and how
// fast they may fire per target.
type Triggers struct {
	// Enabled lists trigger kinds the adapter acts on.
	Enabled []string `yaml:"enabled"`
	// RatePerMinute limits trigger-driven creates per target.
	// Zero disables the limiter.
	RatePerMinute float64 `yaml:"ratePerMinute"`
	// Burst is the limiter burst size; defaults to 1 when a rate is set.
	Burst int `yaml:"burst"`
}

// EnabledSet returns the enabled triggers as a set.
func (t Triggers) EnabledSet() map[snapshot.Trigger]bool {
	set := make(map[snapshot.Trigger]bool, len(t.Enabled))
	for _, name := range t.Enabled {
		set[snapshot.Trigger(name)] = true
	}
	return set
}

// Server configures the API daemon.
type Server struct {
	Address        string  `yaml:"address"`
	Port           int     `yaml:"port"`
	RateLimit      float64 `yaml:"rateLimit"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Path: "/var/lib/stasis",
		},
		Provider: Provider{
			Kind:       ProviderNoop,
			TagPattern: oci.DefaultTagPattern,
		},
		Cleanup: Cleanup{
			Mode: CleanupModeSync,
		},
		Triggers: Triggers{
			Enabled: []string{
				snapshot.TriggerManual.String(),
				snapshot.TriggerRunStart.String(),
				snapshot.TriggerRunEnd.String(),
			},
		},
		Server: Server{
			Port:           8080,
			RateLimit:      100,
			RateLimitBurst: 200,
		},
	}
}

// Load reads the YAML file at path (when non-empty), applies environment
// overrides, and validates the result. An empty path yields the defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalid,
				"cannot read config file", err, map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalid,
				"cannot parse config file", err, map[string]any{"path": path})
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STASIS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("STASIS_PROVIDER"); v != "" {
		c.Provider.Kind = v
	}
	if v := os.Getenv("STASIS_LAYOUT_PATH"); v != "" {
		c.Provider.LayoutPath = v
	}
	if v := os.Getenv("STASIS_CLEANUP_MODE"); v != "" {
		c.Cleanup.Mode = v
	}
	if v := os.Getenv("STASIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return apperrors.New(apperrors.ErrCodeInvalid, "storage.path is required")
	}

	switch c.Provider.Kind {
	case ProviderDocker, ProviderNoop:
	case ProviderOCIDir:
		if c.Provider.LayoutPath == "" {
			return apperrors.New(apperrors.ErrCodeInvalid,
				"provider.layoutPath is required for the ocidir provider")
		}
	default:
		return apperrors.Newf(apperrors.ErrCodeInvalid,
			"unknown provider kind %q", c.Provider.Kind)
	}

	if _, err := oci.NewTagPattern(c.Provider.TagPattern); err != nil {
		return err
	}

	switch c.Cleanup.Mode {
	case CleanupModeSync, CleanupModeAsync:
	default:
		return apperrors.Newf(apperrors.ErrCodeInvalid,
			"cleanup.mode must be %s or %s", CleanupModeSync, CleanupModeAsync)
	}

	for _, name := range c.Triggers.Enabled {
		if !snapshot.Trigger(name).IsValid() {
			return apperrors.Newf(apperrors.ErrCodeInvalid,
				"unknown trigger %q in triggers.enabled", name)
		}
	}
	if c.Triggers.RatePerMinute < 0 {
		return apperrors.New(apperrors.ErrCodeInvalid,
			"triggers.ratePerMinute cannot be negative")
	}

	if r := c.Retention; r.MaxPerTarget < 0 || r.MaxTotal < 0 || r.MaxAgeDays < 0 || r.MaxTotalBytes < 0 {
		return apperrors.New(apperrors.ErrCodeInvalid,
			"retention limits cannot be negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return apperrors.Newf(apperrors.ErrCodeInvalid,
			"server.port %d out of range", c.Server.Port)
	}

	return nil
}

// String renders the effective configuration for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("storage=%s provider=%s cleanup=%s triggers=%v",
		c.Storage.Path, c.Provider.Kind, c.Cleanup.Mode, c.Triggers.Enabled)
}
