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

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
)

// ArtifactType is the media type for stasis snapshot artifacts.
const ArtifactType = "application/vnd.stasis.snapshot"

// AnnotationSnapshotID carries the snapshot id on published manifests.
const AnnotationSnapshotID = "io.stasis.snapshot.id"

// AnnotationSnapshotTarget carries the captured target id on published
// manifests.
const AnnotationSnapshotTarget = "io.stasis.snapshot.target"

// PushOptions configures publishing a captured snapshot payload to a
// remote registry.
type PushOptions struct {
	// SourceDir is the directory holding the snapshot payload.
	SourceDir string
	// Registry is the OCI registry host (e.g., "ghcr.io", "localhost:5000").
	Registry string
	// Repository is the image repository path (e.g., "acme/snapshots").
	Repository string
	// Tag is the image tag, usually produced by a TagPattern.
	Tag string
	// SnapshotID and TargetID are recorded as manifest annotations.
	SnapshotID string
	TargetID   string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult contains the result of a successful publish.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// Push publishes a snapshot payload directory to a registry using ORAS.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if opts.Tag == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalid, "tag is required to publish a snapshot")
	}

	// Absolute path avoids ORAS working directory issues.
	absPushDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalid, "failed to resolve source directory", err)
	}

	registryHost := stripProtocol(opts.Registry)

	refString := fmt.Sprintf("%s/%s:%s", registryHost, opts.Repository, opts.Tag)
	if _, parseErr := reference.ParseNormalizedNamed(refString); parseErr != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalid,
			"invalid image reference", parseErr,
			map[string]any{"reference": refString})
	}

	fs, err := file.New(absPushDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageFailure, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absPushDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageFailure, "failed to add payload to store", err)
	}

	packOpts := oras.PackManifestOptions{
		Layers: []ociv1.Descriptor{layerDesc},
	}
	if opts.SnapshotID != "" || opts.TargetID != "" {
		packOpts.ManifestAnnotations = map[string]string{}
		if opts.SnapshotID != "" {
			packOpts.ManifestAnnotations[AnnotationSnapshotID] = opts.SnapshotID
		}
		if opts.TargetID != "" {
			packOpts.ManifestAnnotations[AnnotationSnapshotTarget] = opts.TargetID
		}
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageFailure, "failed to pack manifest", err)
	}

	if tagErr := fs.Tag(ctx, manifestDesc, opts.Tag); tagErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorageFailure, "failed to tag manifest in local store", tagErr)
	}

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", registryHost, opts.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalid, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	desc, err := oras.Copy(ctx, fs, opts.Tag, repo, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeStorageFailure,
			"failed to publish snapshot to registry", err,
			map[string]any{"reference": refString})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: refString,
	}, nil
}

// stripProtocol removes http:// or https:// prefix from a registry URL.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	registry = strings.TrimPrefix(registry, "http://")
	return registry
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
