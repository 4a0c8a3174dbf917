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

package ocidir

import (
	"context"
	stderrs "errors"
	"os"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	stasisoci "github.com/stasis-io/stasis/pkg/oci"
	"github.com/stasis-io/stasis/pkg/provider"
)

// ProviderName identifies the ocidir provider in config and logs.
const ProviderName = "ocidir"

// Provider captures directory-backed targets as OCI artifacts in a local
// OCI image layout. The target id is the directory path; the provider
// reference is the artifact tag within the layout.
type Provider struct {
	root  string
	store *oci.Store
}

// New opens (or initializes) the OCI image layout rooted at root.
func New(root string) (*Provider, error) {
	store, err := oci.New(root)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeStorageFailure,
			"failed to open OCI layout", err, map[string]any{"root": root})
	}
	return &Provider{root: root, store: store}, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return ProviderName
}

// Validate implements provider.Provider. Only directories are capturable;
// anything else is outside this provider's capability.
func (p *Provider) Validate(_ context.Context, targetID string) (*provider.Target, error) {
	info, err := os.Stat(targetID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				"target directory not found", map[string]any{"target": targetID})
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"cannot stat target", err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotSupported,
			"ocidir provider only captures directories",
			map[string]any{"target": targetID})
	}

	abs, err := filepath.Abs(targetID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalid, "cannot resolve target path", err)
	}

	return &provider.Target{ID: abs, Name: filepath.Base(abs)}, nil
}

// Capture implements provider.Provider by packing the target directory as
// a gzipped tar layer in an OCI 1.1 artifact and tagging it in the layout.
func (p *Provider) Capture(ctx context.Context, targetID, tagHint string) (*provider.Artifact, error) {
	target, err := p.Validate(ctx, targetID)
	if err != nil {
		return nil, err
	}

	fs, err := file.New(target.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, target.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to add target directory", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1,
		stasisoci.ArtifactType, oras.PackManifestOptions{
			Layers: []ociv1.Descriptor{layerDesc},
			ManifestAnnotations: map[string]string{
				stasisoci.AnnotationSnapshotTarget: target.ID,
			},
		})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to pack manifest", err)
	}

	tag := tagHint
	if tag == "" {
		tag = manifestDesc.Digest.Encoded()[:16]
	}
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to tag manifest", err)
	}

	if _, err := oras.Copy(ctx, fs, tag, p.store, tag, oras.DefaultCopyOptions); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"failed to copy artifact into layout", err,
			map[string]any{"tag": tag, "root": p.root})
	}

	return &provider.Artifact{Ref: tag, SizeBytes: layerDesc.Size}, nil
}

// Restore implements provider.Provider by unpacking the tagged artifact
// into a new directory. newName is the destination directory path and
// becomes the new target id.
func (p *Provider) Restore(ctx context.Context, providerRef, newName string, _ provider.RestoreOptions) (string, error) {
	if newName == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalid,
			"restore destination directory is required")
	}

	if _, err := p.store.Resolve(ctx, providerRef); err != nil {
		if stderrs.Is(err, errdef.ErrNotFound) {
			return "", apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				"snapshot artifact not found", map[string]any{"ref": providerRef})
		}
		return "", apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to resolve artifact", err)
	}

	dest, err := filepath.Abs(newName)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalid, "cannot resolve destination path", err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to create destination directory", err)
	}

	fs, err := file.New(dest)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to create destination store", err)
	}
	defer func() { _ = fs.Close() }()

	if _, err := oras.Copy(ctx, p.store, providerRef, fs, providerRef, oras.DefaultCopyOptions); err != nil {
		return "", apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"failed to unpack artifact", err,
			map[string]any{"ref": providerRef, "dest": dest})
	}

	return dest, nil
}

// Remove implements provider.Provider. The manifest is deleted from the
// layout; garbage collection reclaims unreferenced blobs.
func (p *Provider) Remove(ctx context.Context, providerRef string) (*provider.RemoveResult, error) {
	desc, err := p.store.Resolve(ctx, providerRef)
	if err != nil {
		if stderrs.Is(err, errdef.ErrNotFound) {
			return &provider.RemoveResult{AlreadyAbsent: true}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to resolve artifact", err)
	}

	if err := p.store.Delete(ctx, desc); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"failed to delete artifact", err,
			map[string]any{"ref": providerRef})
	}

	return &provider.RemoveResult{}, nil
}
