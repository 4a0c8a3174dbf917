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

package cli

import (
	"context"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/stasis-io/stasis/pkg/serializer"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		wantFormat serializer.Format
		wantErr    bool
	}{
		{
			name:       "valid yaml format",
			format:     "yaml",
			wantFormat: serializer.FormatYAML,
		},
		{
			name:       "valid json format",
			format:     "json",
			wantFormat: serializer.FormatJSON,
		},
		{
			name:       "valid table format",
			format:     "table",
			wantFormat: serializer.FormatTable,
		},
		{
			name:    "invalid format xml",
			format:  "xml",
			wantErr: true,
		},
		{
			name:    "empty format",
			format:  "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got serializer.Format
			var gotErr error

			cmd := &cli.Command{
				Flags: []cli.Flag{formatFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					got, gotErr = parseFormat(cmd)
					return nil
				},
			}

			args := []string{"test"}
			if tc.format != "" {
				args = append(args, "--format", tc.format)
			} else {
				args = append(args, "--format", "")
			}
			if err := cmd.Run(context.Background(), args); err != nil {
				t.Fatalf("run: %v", err)
			}

			if tc.wantErr {
				if gotErr == nil {
					t.Fatalf("expected error for format %q", tc.format)
				}
				return
			}
			if gotErr != nil {
				t.Fatalf("unexpected error: %v", gotErr)
			}
			if got != tc.wantFormat {
				t.Fatalf("got %q, want %q", got, tc.wantFormat)
			}
		})
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "empty",
			pairs: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			pairs: []string{"env=prod"},
			want:  map[string]string{"env": "prod"},
		},
		{
			name:  "multiple pairs",
			pairs: []string{"env=prod", "team=infra"},
			want:  map[string]string{"env": "prod", "team": "infra"},
		},
		{
			name:  "empty value allowed",
			pairs: []string{"flag="},
			want:  map[string]string{"flag": ""},
		},
		{
			name:    "missing separator",
			pairs:   []string{"envprod"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=prod"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLabels(tc.pairs)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tc.pairs)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("label %q: got %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestRootCommandStructure(t *testing.T) {
	root := rootCmd()

	want := []string{"create", "list", "get", "restore", "delete", "cleanup", "stats", "publish", "watch"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands {
			if c.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
}
