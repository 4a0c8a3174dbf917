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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagPatternExpand(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tp, err := NewTagPattern("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTagPattern, tp.String())

	tag := tp.Expand("web-1", "run_start", "abc123", ts)
	assert.Equal(t, "stasis-web-1-run_start-20250314-092653", tag)
}

func TestTagPatternSanitizes(t *testing.T) {
	ts := time.Unix(0, 0)

	tp, err := NewTagPattern("{target}-{trigger}-{id}")
	require.NoError(t, err)

	tag := tp.Expand("db/main", "on_error", "id with spaces", ts)
	assert.NotContains(t, tag, "/")
	assert.NotContains(t, tag, ":")
	assert.NotContains(t, tag, " ")
	assert.Equal(t, "db-main-on_error-id-with-spaces", tag)
}

func TestTagPatternTrimsLeadingSeparators(t *testing.T) {
	tp, err := NewTagPattern("-{target}")
	require.NoError(t, err)

	tag := tp.Expand("web", "manual", "x", time.Unix(0, 0))
	assert.Equal(t, "web", tag)
}

func TestTagPatternCapsLength(t *testing.T) {
	tp, err := NewTagPattern("{target}")
	require.NoError(t, err)

	tag := tp.Expand(strings.Repeat("a", 200), "manual", "x", time.Unix(0, 0))
	assert.Len(t, tag, 128)
}

func TestTagPatternAllPlaceholders(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tp, err := NewTagPattern("{target}.{trigger}.{ts}.{id}")
	require.NoError(t, err)

	tag := tp.Expand("web", "manual", "snap-1", ts)
	assert.Equal(t, "web.manual.20250102-030405.snap-1", tag)
}

func TestNewTagPatternRejectsInvalidLiterals(t *testing.T) {
	for _, pattern := range []string{"{target}!!:::", "snap shot-{id}", "{target}/{trigger}"} {
		_, err := NewTagPattern(pattern)
		assert.Error(t, err, pattern)
	}
}
