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

// Package noop provides a capture provider that supports nothing. It is
// the default when no provider is configured, keeping the orchestrator
// usable for metadata-only operations while every capture path reports
// NotSupported.
package noop

import (
	"context"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/provider"
)

// ProviderName identifies the noop provider in config and logs.
const ProviderName = "noop"

// Provider implements provider.Provider with NotSupported for every
// operation.
type Provider struct{}

// New returns a noop provider.
func New() *Provider {
	return &Provider{}
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return ProviderName
}

// Validate implements provider.Provider.
func (p *Provider) Validate(_ context.Context, targetID string) (*provider.Target, error) {
	return nil, p.notSupported("validate", targetID)
}

// Capture implements provider.Provider.
func (p *Provider) Capture(_ context.Context, targetID, _ string) (*provider.Artifact, error) {
	return nil, p.notSupported("capture", targetID)
}

// Restore implements provider.Provider.
func (p *Provider) Restore(_ context.Context, providerRef, _ string, _ provider.RestoreOptions) (string, error) {
	return "", p.notSupported("restore", providerRef)
}

// Remove implements provider.Provider.
func (p *Provider) Remove(_ context.Context, providerRef string) (*provider.RemoveResult, error) {
	return nil, p.notSupported("remove", providerRef)
}

func (p *Provider) notSupported(op, ref string) error {
	return apperrors.NewWithContext(apperrors.ErrCodeNotSupported,
		"noop provider does not support "+op,
		map[string]any{"operation": op, "ref": ref})
}
