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

package docker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/provider"
)

// fakeRunner maps the first few CLI args to canned responses and records
// every invocation.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     [][]string
}

type fakeResponse struct {
	out    string
	stderr string
	fail   bool
}

func (f *fakeRunner) run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	key := args[0]
	resp, ok := f.responses[key]
	if !ok {
		return nil, fmt.Errorf("unexpected docker %s", strings.Join(args, " "))
	}
	if resp.fail {
		return nil, &execError{err: fmt.Errorf("exit status 1"), stderr: resp.stderr}
	}
	return []byte(resp.out), nil
}

func newProvider(responses map[string]fakeResponse) (*Provider, *fakeRunner) {
	fr := &fakeRunner{responses: responses}
	return &Provider{run: fr}, fr
}

const inspectRunning = `[{"Id":"abc123","Name":"/web-1","State":{"Status":"running"}}]`

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		response fakeResponse
		wantCode apperrors.ErrorCode
		wantID   string
		wantName string
	}{
		{
			name:     "running container",
			response: fakeResponse{out: inspectRunning},
			wantID:   "abc123",
			wantName: "web-1",
		},
		{
			name:     "exited container",
			response: fakeResponse{out: `[{"Id":"abc123","Name":"/web-1","State":{"Status":"exited"}}]`},
			wantID:   "abc123",
			wantName: "web-1",
		},
		{
			name:     "restarting container rejected",
			response: fakeResponse{out: `[{"Id":"abc123","Name":"/web-1","State":{"Status":"restarting"}}]`},
			wantCode: apperrors.ErrCodeInvalid,
		},
		{
			name:     "missing container",
			response: fakeResponse{fail: true, stderr: "Error: No such container: nope"},
			wantCode: apperrors.ErrCodeNotFound,
		},
		{
			name:     "daemon error",
			response: fakeResponse{fail: true, stderr: "Cannot connect to the Docker daemon"},
			wantCode: apperrors.ErrCodeProviderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProvider(map[string]fakeResponse{"inspect": tt.response})

			target, err := p.Validate(context.Background(), "web-1")
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, target.ID)
			assert.Equal(t, tt.wantName, target.Name)
		})
	}
}

func TestCapture(t *testing.T) {
	p, fr := newProvider(map[string]fakeResponse{
		"commit": {out: "sha256:deadbeef\n"},
		"image":  {out: "1048576\n"},
	})

	art, err := p.Capture(context.Background(), "web-1", "web-1-manual-20250314")
	require.NoError(t, err)
	assert.Equal(t, "sha256:deadbeef", art.Ref)
	assert.Equal(t, int64(1048576), art.SizeBytes)

	require.Len(t, fr.calls, 2)
	assert.Equal(t, []string{
		"commit", "--pause=true", "--message", commitMessage,
		"web-1", "stasis/snapshots:web-1-manual-20250314",
	}, fr.calls[0])
}

func TestCaptureWithoutTagHint(t *testing.T) {
	p, fr := newProvider(map[string]fakeResponse{
		"commit": {out: "sha256:deadbeef\n"},
		"image":  {out: "42\n"},
	})

	_, err := p.Capture(context.Background(), "web-1", "")
	require.NoError(t, err)
	assert.Equal(t, "web-1", fr.calls[0][len(fr.calls[0])-1])
}

func TestCaptureSizeFailureIsNotFatal(t *testing.T) {
	p, _ := newProvider(map[string]fakeResponse{
		"commit": {out: "sha256:deadbeef\n"},
		"image":  {fail: true, stderr: "boom"},
	})

	art, err := p.Capture(context.Background(), "web-1", "")
	require.NoError(t, err)
	assert.Zero(t, art.SizeBytes)
}

func TestCaptureMissingContainer(t *testing.T) {
	p, _ := newProvider(map[string]fakeResponse{
		"commit": {fail: true, stderr: "Error response from daemon: No such container: web-1"},
	})

	_, err := p.Capture(context.Background(), "web-1", "")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestRestore(t *testing.T) {
	p, fr := newProvider(map[string]fakeResponse{
		"create": {out: "newcontainer123\n"},
		"start":  {out: ""},
	})

	id, err := p.Restore(context.Background(), "sha256:deadbeef", "web-1-restored", provider.RestoreOptions{
		Start:  true,
		Labels: map[string]string{"b": "2", "a": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "newcontainer123", id)

	require.Len(t, fr.calls, 2)
	assert.Equal(t, []string{
		"create", "--name", "web-1-restored",
		"--label", "a=1", "--label", "b=2",
		"sha256:deadbeef",
	}, fr.calls[0])
	assert.Equal(t, []string{"start", "newcontainer123"}, fr.calls[1])
}

func TestRestoreMissingImage(t *testing.T) {
	p, _ := newProvider(map[string]fakeResponse{
		"create": {fail: true, stderr: "Error response from daemon: No such image: sha256:gone"},
	})

	_, err := p.Restore(context.Background(), "sha256:gone", "", provider.RestoreOptions{})
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestRemove(t *testing.T) {
	t.Run("removes image", func(t *testing.T) {
		p, fr := newProvider(map[string]fakeResponse{
			"rmi": {out: "Deleted: sha256:deadbeef\n"},
		})

		res, err := p.Remove(context.Background(), "sha256:deadbeef")
		require.NoError(t, err)
		assert.False(t, res.AlreadyAbsent)
		assert.Equal(t, []string{"rmi", "--force", "sha256:deadbeef"}, fr.calls[0])
	})

	t.Run("already absent", func(t *testing.T) {
		p, _ := newProvider(map[string]fakeResponse{
			"rmi": {fail: true, stderr: "Error response from daemon: No such image: sha256:gone"},
		})

		res, err := p.Remove(context.Background(), "sha256:gone")
		require.NoError(t, err)
		assert.True(t, res.AlreadyAbsent)
	})

	t.Run("daemon failure", func(t *testing.T) {
		p, _ := newProvider(map[string]fakeResponse{
			"rmi": {fail: true, stderr: "Cannot connect to the Docker daemon"},
		})

		_, err := p.Remove(context.Background(), "sha256:deadbeef")
		assert.Equal(t, apperrors.ErrCodeProviderFailure, apperrors.CodeOf(err))
	})
}

func TestCheckServerVersion(t *testing.T) {
	tests := []struct {
		name     string
		response fakeResponse
		wantErr  bool
	}{
		{name: "supported", response: fakeResponse{out: "27.3.1\n"}},
		{name: "minimum", response: fakeResponse{out: "20.10.0\n"}},
		{name: "too old", response: fakeResponse{out: "19.03.15\n"}, wantErr: true},
		{name: "unreachable", response: fakeResponse{fail: true, stderr: "Cannot connect"}, wantErr: true},
		{name: "garbage", response: fakeResponse{out: "not-a-version\n"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProvider(map[string]fakeResponse{"version": tt.response})

			err := p.checkServerVersion(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeNotSupported, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}
