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

package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr error
	}{
		{
			name:  "full version",
			input: "27.3.1",
			want:  Version{Major: 27, Minor: 3, Patch: 1, Precision: 3},
		},
		{
			name:  "two components",
			input: "20.10",
			want:  Version{Major: 20, Minor: 10, Precision: 2},
		},
		{
			name:  "single component",
			input: "5",
			want:  Version{Major: 5, Precision: 1},
		},
		{
			name:  "v prefix",
			input: "v1.2.3",
			want:  Version{Major: 1, Minor: 2, Patch: 3, Precision: 3},
		},
		{
			name:  "dash suffix",
			input: "24.0.7-ce",
			want:  Version{Major: 24, Minor: 0, Patch: 7, Precision: 3, Extras: "-ce"},
		},
		{
			name:  "suffix with dots",
			input: "1.28.0-gke.1337000",
			want:  Version{Major: 1, Minor: 28, Patch: 0, Precision: 3, Extras: "-gke.1337000"},
		},
		{
			name:  "plus metadata",
			input: "23.0.1+azure",
			want:  Version{Major: 23, Minor: 0, Patch: 1, Precision: 3, Extras: "+azure"},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrEmptyVersion,
		},
		{
			name:    "too many components",
			input:   "1.2.3.4",
			wantErr: ErrTooManyComponents,
		},
		{
			name:    "non numeric",
			input:   "a.b.c",
			wantErr: ErrNonNumeric,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVersion(tc.input)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEqualsOrNewer(t *testing.T) {
	tests := []struct {
		name  string
		v     string
		other string
		want  bool
	}{
		{name: "newer major", v: "27.3.1", other: "20.10", want: true},
		{name: "equal", v: "20.10.0", other: "20.10.0", want: true},
		{name: "older major", v: "19.3.15", other: "20.10", want: false},
		{name: "minor precision matches any patch", v: "20.10", other: "20.10.23", want: true},
		{name: "older minor", v: "20.9.9", other: "20.10", want: false},
		{name: "newer patch", v: "20.10.5", other: "20.10.4", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := MustParseVersion(tc.v)
			other := MustParseVersion(tc.other)
			assert.Equal(t, tc.want, v.EqualsOrNewer(other))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, MustParseVersion("1.2.3").Compare(MustParseVersion("1.2.4")))
	assert.Equal(t, 0, MustParseVersion("1.2.3").Compare(MustParseVersion("1.2.3")))
	assert.Equal(t, 1, MustParseVersion("2.0").Compare(MustParseVersion("1.9.9")))
	// Lower precision bounds the comparison
	assert.Equal(t, 0, MustParseVersion("1.2").Compare(MustParseVersion("1.2.9")))
}

func TestString(t *testing.T) {
	assert.Equal(t, "27.3.1", MustParseVersion("27.3.1").String())
	assert.Equal(t, "20.10", MustParseVersion("20.10").String())
	assert.Equal(t, "5", MustParseVersion("5").String())
	// Extras are not rendered
	assert.Equal(t, "24.0.7", MustParseVersion("24.0.7-ce").String())
}

func TestMustParseVersionPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseVersion("not-a-version") })
}
