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
	"time"

	"github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// Store is the durable persistence contract for snapshot records.
//
// Put is atomic: a reader never observes a partially written record.
// Put and Delete for a single record id are linearizable with respect to
// each other; writes to different ids proceed independently. The index
// that makes a record discoverable by List is derived from record bodies
// and must be rebuildable (see Reconcile).
type Store interface {
	// Put durably persists the record, inserting or replacing by id.
	Put(ctx context.Context, rec *snapshot.Record) error

	// Get returns the record by id, or a NOT_FOUND structured error.
	Get(ctx context.Context, id string) (*snapshot.Record, error)

	// List returns records matching the filter in creation order.
	// Records in deleted state are excluded unless the filter asks for
	// them explicitly.
	List(ctx context.Context, filter snapshot.Filter) ([]*snapshot.Record, error)

	// Delete removes the record body and its index entry. Returns a
	// NOT_FOUND structured error when the id is unknown.
	Delete(ctx context.Context, id string) error

	// Stats aggregates counts and sizes from the index.
	Stats(ctx context.Context) (*snapshot.Stats, error)

	// Reconcile repairs index/record inconsistency left by a crash:
	// index entries without bodies are dropped, bodies without index
	// entries are re-indexed. The index is a cache, never authoritative.
	Reconcile(ctx context.Context) error

	// Close releases store resources (file locks, handles).
	Close() error
}

// checkTransition rejects a Put that would move an existing record
// through an illegal status change. Same-status rewrites (metadata
// updates) are always allowed.
func checkTransition(prior, next snapshot.Status, id string) error {
	if prior == next {
		return nil
	}
	if !prior.CanTransition(next) {
		return errors.NewWithContext(errors.ErrCodeConflict,
			"illegal snapshot status transition",
			map[string]any{"id": id, "from": prior.String(), "to": next.String()})
	}
	return nil
}

// Summary is the per-record index entry: the fields List and Stats need
// without loading the full record body.
type Summary struct {
	TargetID   string           `json:"targetId" yaml:"targetId"`
	TargetName string           `json:"targetName" yaml:"targetName"`
	Trigger    snapshot.Trigger `json:"trigger" yaml:"trigger"`
	Status     snapshot.Status  `json:"status" yaml:"status"`
	CreatedAt  time.Time        `json:"createdAt" yaml:"createdAt"`
	SizeBytes  int64            `json:"sizeBytes,omitempty" yaml:"sizeBytes,omitempty"`
}

// summarize projects a record onto its index entry.
func summarize(rec *snapshot.Record) Summary {
	return Summary{
		TargetID:   rec.TargetID,
		TargetName: rec.TargetName,
		Trigger:    rec.Trigger,
		Status:     rec.Status,
		CreatedAt:  rec.CreatedAt,
		SizeBytes:  rec.SizeBytes,
	}
}

// matchesSummary applies the filter to an index entry, including the
// default exclusion of deleted records.
func matchesSummary(f snapshot.Filter, s Summary) bool {
	if s.Status == snapshot.StatusDeleted && f.Status != snapshot.StatusDeleted {
		return false
	}
	if f.TargetID != "" && s.TargetID != f.TargetID {
		return false
	}
	if f.Trigger != "" && s.Trigger != f.Trigger {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// statsFromIndex computes aggregate stats from index entries in one pass.
// Deleted tombstones show up in ByStatus but are excluded from the
// active totals.
func statsFromIndex(entries map[string]Summary) *snapshot.Stats {
	st := &snapshot.Stats{
		ByStatus:  make(map[snapshot.Status]int),
		PerTarget: make(map[string]int),
	}

	for _, s := range entries {
		st.ByStatus[s.Status]++
		if s.Status == snapshot.StatusDeleted {
			continue
		}
		st.TotalSnapshots++
		st.PerTarget[s.TargetID]++
		if s.Status == snapshot.StatusCompleted {
			st.TotalSizeBytes += s.SizeBytes
		}
	}
	st.TotalTargets = len(st.PerTarget)

	return st
}
