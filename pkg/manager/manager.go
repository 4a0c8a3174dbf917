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

package manager

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/stasis-io/stasis/pkg/config"
	"github.com/stasis-io/stasis/pkg/defaults"
	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/oci"
	"github.com/stasis-io/stasis/pkg/provider"
	"github.com/stasis-io/stasis/pkg/retention"
	"github.com/stasis-io/stasis/pkg/snapshot"
	"github.com/stasis-io/stasis/pkg/store"
)

// CreateOptions carries optional metadata for a new snapshot.
type CreateOptions struct {
	Description string
	Labels      map[string]string
	RunID       string
	ActionName  string
}

// Manager orchestrates snapshot lifecycle: capture, persistence,
// restore, deletion, and retention. All dependencies are injected; the
// manager holds no ambient globals.
//
// Per-target mutual exclusion is fail-fast: a create against a target
// with an operation already in flight returns Conflict immediately, it
// never queues. The lock table is process-local and resets on restart.
type Manager struct {
	provider provider.Provider
	store    store.Store
	cfg      *config.Config
	tags     *oci.TagPattern

	locks         *xsync.Map[string, struct{}]
	restoreMu     [restoreStripes]sync.Mutex
	cleanupInWork sync.WaitGroup
}

// restoreStripes bounds the restore lock table: snapshot ids hash onto
// a fixed set of mutexes instead of accumulating one mutex per id.
const restoreStripes = 64

// restoreLatch returns the stripe serializing restores of the given
// snapshot. Distinct ids may share a stripe; that only costs contention,
// never correctness.
func (m *Manager) restoreLatch(snapshotID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(snapshotID))
	return &m.restoreMu[h.Sum32()%restoreStripes]
}

// New constructs a Manager. The config must already be validated.
func New(p provider.Provider, s store.Store, cfg *config.Config) (*Manager, error) {
	tags, err := oci.NewTagPattern(cfg.Provider.TagPattern)
	if err != nil {
		return nil, err
	}

	return &Manager{
		provider: p,
		store:    s,
		cfg:      cfg,
		tags:     tags,
		locks:    xsync.NewMap[string, struct{}](),
	}, nil
}

// ShouldCreate reports whether the given trigger kind is enabled by
// configuration. The trigger adapter consults this before calling Create.
func (m *Manager) ShouldCreate(trigger snapshot.Trigger) bool {
	return m.cfg.Triggers.EnabledSet()[trigger]
}

// Create captures the target's current state and persists a snapshot
// record. It never returns a record in creating state: the record is
// driven to completed or failed even when the caller's context is
// abandoned mid-capture.
func (m *Manager) Create(ctx context.Context, targetID string, trigger snapshot.Trigger, opts CreateOptions) (*snapshot.Record, error) {
	start := time.Now()

	if targetID == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalid, "target id is required")
	}
	if !trigger.IsValid() {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalid, "unknown trigger %q", trigger)
	}

	target, err := m.validateTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if _, held := m.locks.LoadOrStore(target.ID, struct{}{}); held {
		createsTotal.WithLabelValues("conflict").Inc()
		return nil, apperrors.NewWithContext(apperrors.ErrCodeConflict,
			"snapshot operation already in flight for target",
			map[string]any{"target": target.ID})
	}

	rec, err := m.createLocked(ctx, target, trigger, opts)
	m.locks.Delete(target.ID)

	if err != nil {
		createsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	createsTotal.WithLabelValues("completed").Inc()
	createDuration.Observe(time.Since(start).Seconds())

	m.retentionPass(ctx)

	return rec, nil
}

// createLocked runs the capture with the target lock held. The work
// detaches from the caller's cancellation so an abandoned request cannot
// leave a creating record behind.
func (m *Manager) createLocked(ctx context.Context, target *provider.Target, trigger snapshot.Trigger, opts CreateOptions) (*snapshot.Record, error) {
	workCtx := context.WithoutCancel(ctx)

	rec := &snapshot.Record{
		ID:          uuid.NewString(),
		TargetID:    target.ID,
		TargetName:  target.Name,
		CreatedAt:   time.Now().UTC(),
		Trigger:     trigger,
		Status:      snapshot.StatusCreating,
		Description: opts.Description,
		Labels:      opts.Labels,
		Agent: snapshot.AgentMetadata{
			RunID:      opts.RunID,
			ActionName: opts.ActionName,
		},
	}

	if err := m.store.Put(workCtx, rec); err != nil {
		return nil, err
	}

	tagName := target.Name
	if tagName == "" {
		tagName = target.ID
	}
	tagHint := m.tags.Expand(tagName, trigger.String(), rec.ID, rec.CreatedAt)

	artifact, captureErr := m.capture(workCtx, target.ID, tagHint)
	if captureErr != nil {
		rec.Status = snapshot.StatusFailed
		if putErr := m.putDurable(workCtx, rec); putErr != nil {
			slog.Error("failed to persist failed snapshot record",
				slog.String("id", rec.ID), slog.Any("error", putErr))
		}
		return nil, captureErr
	}

	rec.Status = snapshot.StatusCompleted
	rec.ProviderRef = artifact.Ref
	rec.SizeBytes = artifact.SizeBytes

	if err := m.putDurable(workCtx, rec); err != nil {
		// The artifact exists but the record does not. Surface the
		// provider reference so an operator can reconcile.
		slog.Error("snapshot record write failed after successful capture",
			slog.String("id", rec.ID),
			slog.String("providerRef", artifact.Ref),
			slog.Bool("reconciliation", true),
			slog.Any("error", err))
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeStorageFailure,
			"captured state could not be recorded", err,
			map[string]any{"providerRef": artifact.Ref, "id": rec.ID})
	}

	return rec, nil
}

func (m *Manager) validateTarget(ctx context.Context, targetID string) (*provider.Target, error) {
	vctx, cancel := context.WithTimeout(ctx, defaults.ProviderValidateTimeout)
	defer cancel()

	start := time.Now()
	target, err := m.provider.Validate(vctx, targetID)
	providerCallDuration.WithLabelValues("validate").Observe(time.Since(start).Seconds())
	return target, err
}

func (m *Manager) capture(ctx context.Context, targetID, tagHint string) (*provider.Artifact, error) {
	cctx, cancel := context.WithTimeout(ctx, defaults.ProviderCaptureTimeout)
	defer cancel()

	start := time.Now()
	artifact, err := m.provider.Capture(cctx, targetID, tagHint)
	providerCallDuration.WithLabelValues("capture").Observe(time.Since(start).Seconds())
	return artifact, err
}

// putDurable writes the record, retrying once on failure.
func (m *Manager) putDurable(ctx context.Context, rec *snapshot.Record) error {
	err := m.store.Put(ctx, rec)
	if err == nil {
		return nil
	}
	slog.Warn("record write failed, retrying",
		slog.String("id", rec.ID), slog.Any("error", err))
	return m.store.Put(ctx, rec)
}

// List returns records matching the filter in creation order. Deleted
// tombstones are excluded unless the filter selects them.
func (m *Manager) List(ctx context.Context, filter snapshot.Filter) ([]*snapshot.Record, error) {
	return m.store.List(ctx, filter)
}

// Get returns a single record by id.
func (m *Manager) Get(ctx context.Context, id string) (*snapshot.Record, error) {
	return m.store.Get(ctx, id)
}

// Restore materializes the snapshot as a new target and returns the new
// target id. Restores of the same snapshot are serialized so the
// restoration count increments exactly once per successful restore; a
// failed restore leaves the record unmodified.
func (m *Manager) Restore(ctx context.Context, snapshotID, newName string, opts provider.RestoreOptions) (string, error) {
	mu := m.restoreLatch(snapshotID)
	mu.Lock()
	defer mu.Unlock()

	rec, err := m.store.Get(ctx, snapshotID)
	if err != nil {
		return "", err
	}
	if rec.Status != snapshot.StatusCompleted {
		return "", apperrors.NewWithContext(apperrors.ErrCodeInvalid,
			"only completed snapshots can be restored",
			map[string]any{"id": snapshotID, "status": rec.Status.String()})
	}

	rctx, cancel := context.WithTimeout(ctx, defaults.ProviderRestoreTimeout)
	defer cancel()

	start := time.Now()
	newTargetID, err := m.provider.Restore(rctx, rec.ProviderRef, newName, opts)
	providerCallDuration.WithLabelValues("restore").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	rec.Agent.RestorationCount++
	if err := m.putDurable(context.WithoutCancel(ctx), rec); err != nil {
		// The restore itself succeeded; report the id alongside the
		// bookkeeping failure.
		return newTargetID, apperrors.WrapWithContext(apperrors.ErrCodeStorageFailure,
			"restore succeeded but restoration count was not recorded", err,
			map[string]any{"id": snapshotID, "newTarget": newTargetID})
	}

	restoresTotal.Inc()
	return newTargetID, nil
}

// Delete removes the snapshot. Deleting an already-deleted snapshot is a
// no-op success. The provider artifact is removed (or confirmed absent)
// before the record is marked deleted; completed records become
// tombstones, failed records are removed outright.
func (m *Manager) Delete(ctx context.Context, snapshotID string) error {
	rec, err := m.store.Get(ctx, snapshotID)
	if err != nil {
		return err
	}

	switch rec.Status {
	case snapshot.StatusDeleted:
		return nil

	case snapshot.StatusCreating:
		return apperrors.NewWithContext(apperrors.ErrCodeConflict,
			"snapshot is still being created",
			map[string]any{"id": snapshotID})

	case snapshot.StatusFailed:
		// No artifact to remove.
		if err := m.store.Delete(ctx, snapshotID); err != nil {
			return err
		}

	case snapshot.StatusCompleted:
		if err := m.removeArtifact(ctx, rec); err != nil {
			return err
		}
		rec.Status = snapshot.StatusDeleted
		if err := m.putDurable(context.WithoutCancel(ctx), rec); err != nil {
			return err
		}
	}

	deletesTotal.Inc()
	return nil
}

func (m *Manager) removeArtifact(ctx context.Context, rec *snapshot.Record) error {
	rctx, cancel := context.WithTimeout(ctx, defaults.ProviderRemoveTimeout)
	defer cancel()

	start := time.Now()
	res, err := m.provider.Remove(rctx, rec.ProviderRef)
	providerCallDuration.WithLabelValues("remove").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if res.AlreadyAbsent {
		slog.Warn("snapshot artifact was already absent",
			slog.String("id", rec.ID),
			slog.String("providerRef", rec.ProviderRef))
	}
	return nil
}

// Cleanup applies the retention policy (merged with the optional
// override) over a point-in-time view of the store and returns the ids
// it deleted. Records still in creating state are never touched; records
// created after the scan starts are not seen by it.
func (m *Manager) Cleanup(ctx context.Context, override *retention.Policy) ([]string, error) {
	policy := m.cfg.Retention.Policy()
	if override != nil {
		policy = policy.Merge(*override)
	}
	if !policy.Enabled() {
		return nil, nil
	}
	return m.evict(ctx, policy)
}

// retentionPass runs the configured policy after a create, inline or in
// the background per cleanup.mode.
func (m *Manager) retentionPass(ctx context.Context) {
	policy := m.cfg.Retention.Policy()
	if !policy.Enabled() {
		return
	}

	if m.cfg.Cleanup.Mode == config.CleanupModeAsync {
		m.cleanupInWork.Add(1)
		bg := context.WithoutCancel(ctx)
		go func() {
			defer m.cleanupInWork.Done()
			if _, err := m.evict(bg, policy); err != nil {
				slog.Error("background retention pass failed", slog.Any("error", err))
			}
		}()
		return
	}

	if _, err := m.evict(ctx, policy); err != nil {
		slog.Error("retention pass failed", slog.Any("error", err))
	}
}

func (m *Manager) evict(ctx context.Context, policy retention.Policy) ([]string, error) {
	records, err := m.store.List(ctx, snapshot.Filter{})
	if err != nil {
		return nil, err
	}

	ids := retention.Evict(records, policy, time.Now().UTC())
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[string]*snapshot.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		rec := byID[id]
		if rec.Status == snapshot.StatusCompleted {
			if err := m.removeArtifact(ctx, rec); err != nil {
				slog.Error("failed to remove evicted snapshot artifact",
					slog.String("id", id), slog.Any("error", err))
				continue
			}
		}
		if err := m.store.Delete(ctx, id); err != nil {
			slog.Error("failed to delete evicted snapshot record",
				slog.String("id", id), slog.Any("error", err))
			continue
		}
		deleted = append(deleted, id)
		cleanupEvictionsTotal.Inc()
	}

	if len(deleted) > 0 {
		slog.Info("retention evicted snapshots", slog.Int("count", len(deleted)))
	}
	return deleted, nil
}

// Stats returns aggregate counts and sizes and refreshes the store
// gauges.
func (m *Manager) Stats(ctx context.Context) (*snapshot.Stats, error) {
	st, err := m.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	storeRecords.Set(float64(st.TotalSnapshots))
	storeBytes.Set(float64(st.TotalSizeBytes))
	return st, nil
}

// Wait blocks until background retention passes started by async
// cleanup mode have finished. Used on shutdown and in tests.
func (m *Manager) Wait() {
	m.cleanupInWork.Wait()
}
