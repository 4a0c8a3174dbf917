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

package trigger

import (
	"context"
	"log/slog"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/manager"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// Orchestrator is the slice of the snapshot manager the adapter needs.
type Orchestrator interface {
	ShouldCreate(trigger snapshot.Trigger) bool
	Create(ctx context.Context, targetID string, trigger snapshot.Trigger, opts manager.CreateOptions) (*snapshot.Record, error)
}

// Resolver extracts the target id from a host event payload. Returning
// an empty string means no target could be resolved.
type Resolver func(event map[string]any) string

// DefaultResolver looks for a container_id key, then for container_id
// entries inside a tools list.
func DefaultResolver(event map[string]any) string {
	if id, ok := event["container_id"].(string); ok && id != "" {
		return id
	}
	tools, ok := event["tools"].([]any)
	if !ok {
		return ""
	}
	for _, tool := range tools {
		entry, ok := tool.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := entry["container_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// Option configures the adapter.
type Option func(*Adapter)

// WithResolver replaces the default target resolver.
func WithResolver(r Resolver) Option {
	return func(a *Adapter) {
		a.resolve = r
	}
}

// WithRateLimit caps trigger-driven snapshots per target. perMinute <= 0
// leaves the limiter disabled.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(a *Adapter) {
		if perMinute <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limit = rate.Limit(perMinute / 60)
		a.burst = burst
	}
}

// Adapter translates host lifecycle events into snapshot creates. It is
// a boundary: provider and store errors are logged here and never
// propagate into the host's control flow.
type Adapter struct {
	orch    Orchestrator
	resolve Resolver

	limit    rate.Limit
	burst    int
	limiters *xsync.Map[string, *rate.Limiter]
}

// New constructs the adapter around an orchestrator.
func New(orch Orchestrator, opts ...Option) *Adapter {
	a := &Adapter{
		orch:     orch,
		resolve:  DefaultResolver,
		limiters: xsync.NewMap[string, *rate.Limiter](),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle processes one lifecycle event. Disabled trigger kinds are a
// silent no-op; all failures are swallowed after logging.
func (a *Adapter) Handle(ctx context.Context, targetID string, trigger snapshot.Trigger, event map[string]any) {
	if targetID == "" {
		targetID = a.resolve(event)
	}
	if targetID == "" {
		slog.Debug("no target resolvable from event",
			slog.String("trigger", trigger.String()))
		return
	}

	if !a.orch.ShouldCreate(trigger) {
		return
	}

	if !a.allow(targetID) {
		slog.Debug("trigger rate limited",
			slog.String("target", targetID),
			slog.String("trigger", trigger.String()))
		return
	}

	opts := manager.CreateOptions{}
	if runID, ok := event["run_id"].(string); ok {
		opts.RunID = runID
	}
	if action, ok := event["action_name"].(string); ok {
		opts.ActionName = action
	}

	rec, err := a.orch.Create(ctx, targetID, trigger, opts)
	if err != nil {
		// A concurrent in-flight snapshot is routine, everything else
		// is worth a warning. Either way the host flow continues.
		level := slog.LevelWarn
		if apperrors.IsCode(err, apperrors.ErrCodeConflict) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "trigger-driven snapshot failed",
			slog.String("target", targetID),
			slog.String("trigger", trigger.String()),
			slog.Any("error", err))
		return
	}

	slog.Info("trigger-driven snapshot created",
		slog.String("id", rec.ID),
		slog.String("target", targetID),
		slog.String("trigger", trigger.String()))
}

func (a *Adapter) allow(targetID string) bool {
	if a.limit == 0 {
		return true
	}
	limiter, _ := a.limiters.LoadOrStore(targetID, rate.NewLimiter(a.limit, a.burst))
	return limiter.Allow()
}

// OnRunStart mirrors the host's run lifecycle callback surface.
func (a *Adapter) OnRunStart(ctx context.Context, event map[string]any) {
	a.Handle(ctx, "", snapshot.TriggerRunStart, event)
}

// OnRunEnd fires when an agent run finishes.
func (a *Adapter) OnRunEnd(ctx context.Context, event map[string]any) {
	a.Handle(ctx, "", snapshot.TriggerRunEnd, event)
}

// OnActionStart fires before the agent performs an action.
func (a *Adapter) OnActionStart(ctx context.Context, event map[string]any) {
	a.Handle(ctx, "", snapshot.TriggerBeforeAction, event)
}

// OnActionEnd fires after the agent performed an action.
func (a *Adapter) OnActionEnd(ctx context.Context, event map[string]any) {
	a.Handle(ctx, "", snapshot.TriggerAfterAction, event)
}

// OnError fires when the agent run hits an error.
func (a *Adapter) OnError(ctx context.Context, event map[string]any) {
	a.Handle(ctx, "", snapshot.TriggerOnError, event)
}
