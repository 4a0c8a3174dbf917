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

// Package factory constructs capture providers from configuration.
package factory

import (
	"context"

	"github.com/stasis-io/stasis/pkg/config"
	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/provider"
	"github.com/stasis-io/stasis/pkg/provider/docker"
	"github.com/stasis-io/stasis/pkg/provider/noop"
	"github.com/stasis-io/stasis/pkg/provider/ocidir"
)

// New builds the capture provider named by the configuration.
func New(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderDocker:
		return docker.New(ctx)
	case config.ProviderOCIDir:
		return ocidir.New(cfg.Provider.LayoutPath)
	case config.ProviderNoop:
		return noop.New(), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeInvalid,
			"unknown provider kind %q", cfg.Provider.Kind)
	}
}
