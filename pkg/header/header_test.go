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

package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindIsValid(t *testing.T) {
	assert.True(t, KindSnapshot.IsValid())
	assert.True(t, KindSnapshotList.IsValid())
	assert.True(t, KindSnapshotStats.IsValid())
	assert.True(t, KindCleanupResult.IsValid())
	assert.False(t, Kind("Recipe").IsValid())
	assert.False(t, Kind("").IsValid())
}

func TestInit(t *testing.T) {
	var h Header
	h.Init(KindSnapshot, "v0.3.1")

	assert.Equal(t, KindSnapshot, h.Kind)
	assert.Equal(t, APIVersionV1, h.APIVersion)
	assert.Equal(t, "v0.3.1", h.Metadata["version"])
	assert.NotEmpty(t, h.Metadata["timestamp"])
}

func TestInitNoVersion(t *testing.T) {
	var h Header
	h.Init(KindSnapshotStats, "")

	_, ok := h.Metadata["version"]
	assert.False(t, ok)
}
