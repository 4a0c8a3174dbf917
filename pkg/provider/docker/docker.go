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
	"encoding/json"
	stderrs "errors"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/provider"
	"github.com/stasis-io/stasis/pkg/version"
)

// ProviderName identifies the docker provider in config and logs.
const ProviderName = "docker"

// commitMessage is stamped on every committed image.
const commitMessage = "stasis snapshot"

// minServerVersion is the oldest docker engine the provider is tested
// against.
var minServerVersion = version.MustParseVersion("20.10")

// capturableStates are the container states that can be committed.
var capturableStates = map[string]bool{
	"running": true,
	"paused":  true,
	"exited":  true,
}

// runner executes the docker CLI. Abstracted so tests can substitute a
// recorder.
type runner interface {
	run(ctx context.Context, args ...string) ([]byte, error)
}

type cliRunner struct {
	path string
}

func (r *cliRunner) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.path, args...)
	return cmd.Output()
}

// Provider captures container state by shelling out to the docker CLI:
// commit for capture, create-from-image for restore, rmi for remove.
type Provider struct {
	run runner
}

// New locates the docker CLI and verifies the engine version meets the
// supported floor. Returns NotSupported when docker is not usable on
// this host.
func New(ctx context.Context) (*Provider, error) {
	dockerPath, err := exec.LookPath("docker")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNotSupported, "docker CLI not found in PATH", err)
	}

	p := &Provider{run: &cliRunner{path: dockerPath}}
	if err := p.checkServerVersion(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) checkServerVersion(ctx context.Context) error {
	out, err := p.run.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNotSupported,
			"docker daemon is not reachable", cliError(err))
	}

	raw := strings.TrimSpace(string(out))
	v, err := version.ParseVersion(raw)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeNotSupported,
			"cannot parse docker server version", err,
			map[string]any{"version": raw})
	}
	if !v.EqualsOrNewer(minServerVersion) {
		return apperrors.NewWithContext(apperrors.ErrCodeNotSupported,
			"docker server version below supported minimum",
			map[string]any{"version": raw, "minimum": minServerVersion.String()})
	}

	slog.Debug("docker provider ready", slog.String("serverVersion", raw))
	return nil
}

// inspectState is the subset of docker inspect output the provider reads.
type inspectState struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Status string `json:"Status"`
	} `json:"State"`
}

// Validate implements provider.Provider. A container is capturable when
// it is running, paused, or exited.
func (p *Provider) Validate(ctx context.Context, targetID string) (*provider.Target, error) {
	out, err := p.run.run(ctx, "inspect", "--type", "container", targetID)
	if err != nil {
		if isNoSuchObject(err) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				"container not found", map[string]any{"target": targetID})
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"docker inspect failed", cliError(err))
	}

	var states []inspectState
	if err := json.Unmarshal(out, &states); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeProviderFailure,
			"failed to parse docker inspect output", err)
	}
	if len(states) == 0 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
			"container not found", map[string]any{"target": targetID})
	}

	st := states[0]
	if !capturableStates[st.State.Status] {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalid,
			"container is not in a capturable state",
			map[string]any{"target": targetID, "state": st.State.Status})
	}

	return &provider.Target{
		ID:   st.ID,
		Name: strings.TrimPrefix(st.Name, "/"),
	}, nil
}

// Capture implements provider.Provider by committing the container to an
// image. The container is paused for the duration of the commit so the
// captured filesystem is consistent.
func (p *Provider) Capture(ctx context.Context, targetID, tagHint string) (*provider.Artifact, error) {
	args := []string{"commit", "--pause=true", "--message", commitMessage}
	if tagHint != "" {
		args = append(args, targetID, "stasis/snapshots:"+tagHint)
	} else {
		args = append(args, targetID)
	}

	out, err := p.run.run(ctx, args...)
	if err != nil {
		if isNoSuchObject(err) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				"container not found", map[string]any{"target": targetID})
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"docker commit failed", cliError(err),
			map[string]any{"target": targetID})
	}

	imageID := strings.TrimSpace(string(out))
	size, err := p.imageSize(ctx, imageID)
	if err != nil {
		// The commit succeeded; a missing size is not worth failing the
		// capture over.
		slog.Warn("could not determine image size",
			slog.String("image", imageID), slog.Any("error", err))
		size = 0
	}

	return &provider.Artifact{Ref: imageID, SizeBytes: size}, nil
}

func (p *Provider) imageSize(ctx context.Context, imageID string) (int64, error) {
	out, err := p.run.run(ctx, "image", "inspect", "--format", "{{.Size}}", imageID)
	if err != nil {
		return 0, cliError(err)
	}
	return strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
}

// Restore implements provider.Provider by creating a new container from
// the committed image.
func (p *Provider) Restore(ctx context.Context, providerRef, newName string, opts provider.RestoreOptions) (string, error) {
	args := []string{"create"}
	if newName != "" {
		args = append(args, "--name", newName)
	}
	for _, k := range sortedKeys(opts.Labels) {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}
	args = append(args, providerRef)

	out, err := p.run.run(ctx, args...)
	if err != nil {
		if isNoSuchImage(err) {
			return "", apperrors.NewWithContext(apperrors.ErrCodeNotFound,
				"snapshot image not found", map[string]any{"ref": providerRef})
		}
		return "", apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"docker create failed", cliError(err),
			map[string]any{"ref": providerRef})
	}

	containerID := strings.TrimSpace(string(out))
	if opts.Start {
		if _, err := p.run.run(ctx, "start", containerID); err != nil {
			return "", apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
				"restored container failed to start", cliError(err),
				map[string]any{"container": containerID})
		}
	}

	return containerID, nil
}

// Remove implements provider.Provider. A missing image is reported as
// already absent, not as an error.
func (p *Provider) Remove(ctx context.Context, providerRef string) (*provider.RemoveResult, error) {
	if _, err := p.run.run(ctx, "rmi", "--force", providerRef); err != nil {
		if isNoSuchImage(err) {
			return &provider.RemoveResult{AlreadyAbsent: true}, nil
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeProviderFailure,
			"docker rmi failed", cliError(err),
			map[string]any{"ref": providerRef})
	}
	return &provider.RemoveResult{}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cliError folds captured stderr into the error so failures are
// actionable in logs.
func cliError(err error) error {
	var ee *exec.ExitError
	if stderrs.As(err, &ee) && len(ee.Stderr) > 0 {
		return &execError{err: err, stderr: strings.TrimSpace(string(ee.Stderr))}
	}
	return err
}

func stderrOf(err error) string {
	var ee *exec.ExitError
	if stderrs.As(err, &ee) {
		return string(ee.Stderr)
	}
	var xe *execError
	if stderrs.As(err, &xe) {
		return xe.stderr
	}
	return ""
}

func isNoSuchObject(err error) bool {
	s := stderrOf(err)
	return strings.Contains(s, "No such container") || strings.Contains(s, "No such object")
}

func isNoSuchImage(err error) bool {
	return strings.Contains(stderrOf(err), "No such image")
}

type execError struct {
	err    error
	stderr string
}

func (e *execError) Error() string {
	return e.err.Error() + ": " + e.stderr
}

func (e *execError) Unwrap() error {
	return e.err
}
