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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/stasis-io/stasis/pkg/defaults"
	"github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

const (
	recordsDirName = "records"
	indexFileName  = "index.json"
	lockFileName   = ".stasis.lock"
	recordFileExt  = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore persists one JSON file per record plus a derived index file
// under a base directory. Every write is temp-file-then-rename so readers
// never observe partial content. The base directory is held exclusively
// via a flock so two processes cannot interleave writes.
type FileStore struct {
	baseDir    string
	recordsDir string

	flk *flock.Flock

	// latches serializes Put/Delete per record id. Writes to different
	// ids proceed independently.
	latches *xsync.Map[string, *sync.Mutex]

	// indexMu guards the in-memory index and the index file.
	indexMu sync.RWMutex
	index   *fileIndex
}

// fileIndex is the persisted derived structure: id to summary plus
// creation-ordered id sequences, globally and per target.
type fileIndex struct {
	APIVersion string              `json:"apiVersion"`
	Kind       string              `json:"kind"`
	Entries    map[string]Summary  `json:"entries"`
	Order      []string            `json:"order"`
	Targets    map[string][]string `json:"targets"`
}

func newFileIndex() *fileIndex {
	return &fileIndex{
		APIVersion: "v1",
		Kind:       "SnapshotIndex",
		Entries:    make(map[string]Summary),
		Targets:    make(map[string][]string),
	}
}

// NewFileStore opens (creating if needed) a file-backed store at baseDir,
// acquires the directory lock, and runs a reconciliation pass so a crash
// between body-write and index-update self-heals before first use.
func NewFileStore(ctx context.Context, baseDir string) (*FileStore, error) {
	recordsDir := filepath.Join(baseDir, recordsDirName)
	if err := os.MkdirAll(recordsDir, dirPerm); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "failed to create store directory", err)
	}

	flk := flock.New(filepath.Join(baseDir, lockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, defaults.StoreFlockTimeout)
	defer cancel()
	locked, err := flk.TryLockContext(lockCtx, defaults.StoreFlockRetryDelay)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "failed to lock store directory", err)
	}
	if !locked {
		return nil, errors.Newf(errors.ErrCodeStorageFailure,
			"store directory %s is locked by another process", baseDir)
	}

	s := &FileStore{
		baseDir:    baseDir,
		recordsDir: recordsDir,
		flk:        flk,
		latches:    xsync.NewMap[string, *sync.Mutex](),
		index:      newFileIndex(),
	}

	if err := s.loadIndex(); err != nil {
		slog.Warn("index unreadable, rebuilding from record bodies", "error", err)
		s.index = newFileIndex()
	}

	if err := s.Reconcile(ctx); err != nil {
		_ = flk.Unlock()
		return nil, err
	}

	return s, nil
}

// Close releases the base-directory lock.
func (s *FileStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}

// BaseDir returns the store's base directory.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.recordsDir, id+recordFileExt)
}

// latch returns the per-id write mutex, creating it on first use.
func (s *FileStore) latch(id string) *sync.Mutex {
	mu, _ := s.latches.LoadOrStore(id, &sync.Mutex{})
	return mu
}

// Put durably writes the record body, then makes it discoverable in the
// index. The ordering matters: a crash between the two steps leaves an
// unindexed body that Reconcile re-indexes on next startup.
func (s *FileStore) Put(ctx context.Context, rec *snapshot.Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalid, "record id is required")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "put canceled", err)
	}

	mu := s.latch(rec.ID)
	mu.Lock()
	defer mu.Unlock()

	s.indexMu.RLock()
	prior, known := s.index.Entries[rec.ID]
	s.indexMu.RUnlock()
	if known {
		if err := checkTransition(prior.Status, rec.Status, rec.ID); err != nil {
			return err
		}
	}

	if err := s.writeRecordFile(rec); err != nil {
		return err
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if _, known := s.index.Entries[rec.ID]; !known {
		s.index.Order = append(s.index.Order, rec.ID)
		s.index.Targets[rec.TargetID] = append(s.index.Targets[rec.TargetID], rec.ID)
	}
	s.index.Entries[rec.ID] = summarize(rec)

	return s.writeIndexLocked()
}

// Get reads a single record body.
func (s *FileStore) Get(ctx context.Context, id string) (*snapshot.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "get canceled", err)
	}

	rec, err := s.readRecordFile(id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List walks the index in creation order, filters on summaries, and loads
// only the matching record bodies.
func (s *FileStore) List(ctx context.Context, filter snapshot.Filter) ([]*snapshot.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "list canceled", err)
	}

	s.indexMu.RLock()
	ids := make([]string, 0, len(s.index.Order))
	for _, id := range s.index.Order {
		if sum, ok := s.index.Entries[id]; ok && matchesSummary(filter, sum) {
			ids = append(ids, id)
		}
	}
	s.indexMu.RUnlock()

	out := make([]*snapshot.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.readRecordFile(id)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeNotFound) {
				// Indexed but no body: crash window, healed on next
				// reconcile. Skip rather than fail the whole listing.
				slog.Warn("indexed record has no body", "id", id)
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes the record body, then the index entry. A crash between
// the two converges to "both absent" via Reconcile.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "delete canceled", err)
	}

	mu := s.latch(id)
	mu.Lock()
	defer mu.Unlock()

	bodyErr := os.Remove(s.recordPath(id))
	if bodyErr != nil && !os.IsNotExist(bodyErr) {
		return errors.Wrap(errors.ErrCodeStorageFailure, "failed to remove record body", bodyErr)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	sum, known := s.index.Entries[id]
	if !known {
		if os.IsNotExist(bodyErr) {
			return errors.Newf(errors.ErrCodeNotFound, "snapshot %s not found", id)
		}
		return nil
	}

	delete(s.index.Entries, id)
	s.index.Order = removeID(s.index.Order, id)
	s.index.Targets[sum.TargetID] = removeID(s.index.Targets[sum.TargetID], id)
	if len(s.index.Targets[sum.TargetID]) == 0 {
		delete(s.index.Targets, sum.TargetID)
	}

	return s.writeIndexLocked()
}

// Stats aggregates from index summaries without touching record bodies.
func (s *FileStore) Stats(ctx context.Context) (*snapshot.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "stats canceled", err)
	}

	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return statsFromIndex(s.index.Entries), nil
}

// Reconcile rebuilds the index from record bodies. Bodies are the source
// of truth: entries without bodies are dropped, unindexed bodies are
// re-indexed in createdAt order (id as tie-break, since the original
// insertion order is unrecoverable after a crash).
func (s *FileStore) Reconcile(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "reconcile canceled", err)
	}

	names, err := os.ReadDir(s.recordsDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "failed to scan records directory", err)
	}

	bodies := make(map[string]*snapshot.Record, len(names))
	for _, de := range names {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, recordFileExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordFileExt)
		rec, err := s.readRecordFile(id)
		if err != nil {
			// Unparsable body: treat as deleted per the recovery
			// contract, but keep the file for manual inspection.
			slog.Warn("skipping unreadable record body", "id", id, "error", err)
			continue
		}
		bodies[id] = rec
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	repaired := 0
	next := newFileIndex()

	// Preserve existing insertion order for ids that still have bodies.
	for _, id := range s.index.Order {
		rec, ok := bodies[id]
		if !ok {
			repaired++
			continue
		}
		next.Entries[id] = summarize(rec)
		next.Order = append(next.Order, id)
		next.Targets[rec.TargetID] = append(next.Targets[rec.TargetID], id)
		delete(bodies, id)
	}

	// Orphan bodies join in createdAt order.
	orphans := make([]*snapshot.Record, 0, len(bodies))
	for _, rec := range bodies {
		orphans = append(orphans, rec)
	}
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].CreatedAt.Equal(orphans[j].CreatedAt) {
			return orphans[i].ID < orphans[j].ID
		}
		return orphans[i].CreatedAt.Before(orphans[j].CreatedAt)
	})
	for _, rec := range orphans {
		repaired++
		next.Entries[rec.ID] = summarize(rec)
		next.Order = append(next.Order, rec.ID)
		next.Targets[rec.TargetID] = append(next.Targets[rec.TargetID], rec.ID)
	}

	s.index = next

	if repaired > 0 {
		slog.Info("store index reconciled", "repairs", repaired, "records", len(next.Entries))
		return s.writeIndexLocked()
	}
	return nil
}

// writeRecordFile atomically persists a record body.
func (s *FileStore) writeRecordFile(rec *snapshot.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "failed to marshal record", err)
	}
	if err := atomicWrite(s.recordPath(rec.ID), data); err != nil {
		return errors.WrapWithContext(errors.ErrCodeStorageFailure, "failed to write record", err,
			map[string]any{"id": rec.ID})
	}
	return nil
}

func (s *FileStore) readRecordFile(id string) (*snapshot.Record, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if os.IsNotExist(err) {
		return nil, errors.Newf(errors.ErrCodeNotFound, "snapshot %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailure, "failed to read record", err)
	}

	var rec snapshot.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeStorageFailure, "failed to parse record", err,
			map[string]any{"id": id})
	}
	return &rec, nil
}

// writeIndexLocked persists the index; callers hold indexMu.
func (s *FileStore) writeIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "failed to marshal index", err)
	}
	if err := atomicWrite(filepath.Join(s.baseDir, indexFileName), data); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailure, "failed to write index", err)
	}
	return nil
}

func (s *FileStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, indexFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	idx := newFileIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return err
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]Summary)
	}
	if idx.Targets == nil {
		idx.Targets = make(map[string][]string)
	}
	s.index = idx
	return nil
}

// atomicWrite writes data to a temp file in the target's directory and
// renames it into place. Rename within one filesystem is all-or-nothing.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
