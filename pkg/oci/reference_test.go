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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantOCI   bool
		wantReg   string
		wantRepo  string
		wantTag   string
		wantLocal string
		wantErr   bool
	}{
		{
			name:     "full OCI reference with tag",
			target:   "oci://ghcr.io/acme/web-snapshots:v1",
			wantOCI:  true,
			wantReg:  "ghcr.io",
			wantRepo: "acme/web-snapshots",
			wantTag:  "v1",
		},
		{
			name:     "OCI reference without tag",
			target:   "oci://localhost:5000/snapshots",
			wantOCI:  true,
			wantReg:  "localhost:5000",
			wantRepo: "snapshots",
			wantTag:  "",
		},
		{
			name:      "local path",
			target:    "/var/lib/stasis/snapshots",
			wantOCI:   false,
			wantLocal: "/var/lib/stasis/snapshots",
		},
		{
			name:      "relative local path",
			target:    "./out",
			wantOCI:   false,
			wantLocal: "./out",
		},
		{
			name:    "invalid OCI reference",
			target:  "oci://ghcr.io/ACME/Bad Repo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseTarget(tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalid, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOCI, ref.IsOCI)
			assert.Equal(t, tt.wantReg, ref.Registry)
			assert.Equal(t, tt.wantRepo, ref.Repository)
			assert.Equal(t, tt.wantTag, ref.Tag)
			assert.Equal(t, tt.wantLocal, ref.LocalPath)
		})
	}
}

func TestReferenceString(t *testing.T) {
	ref, err := ParseTarget("oci://ghcr.io/acme/web-snapshots:v1")
	require.NoError(t, err)
	assert.Equal(t, "oci://ghcr.io/acme/web-snapshots:v1", ref.String())
	assert.Equal(t, "ghcr.io/acme/web-snapshots:v1", ref.ImageReference())

	untagged := ref.WithTag("")
	assert.Equal(t, "oci://ghcr.io/acme/web-snapshots", untagged.String())
	assert.Equal(t, "ghcr.io/acme/web-snapshots", untagged.ImageReference())
}

func TestReferenceWithTag(t *testing.T) {
	ref, err := ParseTarget("oci://ghcr.io/acme/web-snapshots")
	require.NoError(t, err)

	tagged := ref.WithTag("nightly")
	assert.Equal(t, "nightly", tagged.Tag)
	assert.Empty(t, ref.Tag, "original reference must not change")

	local, err := ParseTarget("/tmp/out")
	require.NoError(t, err)
	assert.Same(t, local, local.WithTag("ignored"))
	assert.Empty(t, local.ImageReference())
	assert.Equal(t, "/tmp/out", local.String())
}
