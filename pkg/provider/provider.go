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

package provider

import (
	"context"
)

// Target describes a validated capture target.
type Target struct {
	// ID is the canonical target identifier (e.g., full container id).
	ID string `json:"id"`
	// Name is the human-readable target name, if the backend has one.
	Name string `json:"name,omitempty"`
}

// Artifact is the result of a successful capture.
type Artifact struct {
	// Ref is the provider-side reference to the captured state
	// (image id, artifact digest). Opaque to everything but the
	// provider that produced it.
	Ref string `json:"ref"`
	// SizeBytes is the artifact size as reported by the backend,
	// zero when the backend cannot report one.
	SizeBytes int64 `json:"sizeBytes"`
}

// RestoreOptions carries optional restore behavior.
type RestoreOptions struct {
	// Start starts the restored target after materializing it.
	// Only meaningful for runtime-backed providers.
	Start bool
	// Labels are attached to the restored target when the backend
	// supports labeling.
	Labels map[string]string
}

// RemoveResult reports the outcome of removing a captured artifact.
type RemoveResult struct {
	// AlreadyAbsent is true when the artifact was gone before the
	// call. Removal of an absent artifact is a success, not an error.
	AlreadyAbsent bool
}

// Provider captures and restores target state. Implementations must
// return errors from the pkg/errors taxonomy: ErrCodeInvalid for targets
// not in an operable state, ErrCodeNotSupported when an operation or
// target kind is outside the provider's capability, and
// ErrCodeProviderFailure for backend failures.
type Provider interface {
	// Name identifies the provider implementation (e.g., "docker").
	Name() string

	// Validate checks that the target exists and is in a state that can
	// be captured, returning its canonical identity.
	Validate(ctx context.Context, targetID string) (*Target, error)

	// Capture persists the target's current state and returns a
	// provider reference to it. The tag hint, when non-empty, names the
	// artifact on backends that support naming.
	Capture(ctx context.Context, targetID, tagHint string) (*Artifact, error)

	// Restore materializes a previously captured artifact as a new
	// target and returns the new target's id.
	Restore(ctx context.Context, providerRef, newName string, opts RestoreOptions) (string, error)

	// Remove deletes the captured artifact. Removing an artifact that
	// no longer exists succeeds with AlreadyAbsent set.
	Remove(ctx context.Context, providerRef string) (*RemoveResult, error)
}
