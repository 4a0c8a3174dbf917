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

package retention

import (
	"sort"
	"time"

	"github.com/stasis-io/stasis/pkg/snapshot"
)

// Policy holds the retention limits. All dimensions are optional; a zero
// value disables that dimension.
type Policy struct {
	// MaxPerTarget caps completed snapshots per target, oldest-first
	// eviction beyond the limit.
	MaxPerTarget int `json:"maxPerTarget,omitempty" yaml:"maxPerTarget,omitempty"`

	// MaxTotal caps completed snapshots system-wide.
	MaxTotal int `json:"maxTotal,omitempty" yaml:"maxTotal,omitempty"`

	// MaxAge evicts records older than this, computed from createdAt.
	MaxAge time.Duration `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`

	// MaxTotalBytes caps total completed snapshot storage; oldest-first
	// eviction until under budget.
	MaxTotalBytes int64 `json:"maxTotalBytes,omitempty" yaml:"maxTotalBytes,omitempty"`
}

// Enabled reports whether any retention dimension is configured.
func (p Policy) Enabled() bool {
	return p.MaxPerTarget > 0 || p.MaxTotal > 0 || p.MaxAge > 0 || p.MaxTotalBytes > 0
}

// Merge overlays non-zero fields of override onto p and returns the result.
// Used for per-call policy overrides on cleanup.
func (p Policy) Merge(override Policy) Policy {
	out := p
	if override.MaxPerTarget > 0 {
		out.MaxPerTarget = override.MaxPerTarget
	}
	if override.MaxTotal > 0 {
		out.MaxTotal = override.MaxTotal
	}
	if override.MaxAge > 0 {
		out.MaxAge = override.MaxAge
	}
	if override.MaxTotalBytes > 0 {
		out.MaxTotalBytes = override.MaxTotalBytes
	}
	return out
}

// Evict decides which record ids are eligible for deletion under the
// policy. It is a pure function: records is the point-in-time index
// snapshot in insertion order, now anchors age computation.
//
// Rules:
//   - creating records are never evicted, regardless of age
//   - deleted records are ignored entirely
//   - counts that trigger the per-target and total limits include only
//     completed records; failed records neither count nor protect
//   - failed records are themselves eligible: the age and size dimensions
//     select them directly, and a triggered count limit sweeps failed
//     records older than the oldest surviving completed record
//   - when multiple limits select overlapping candidates, the union is
//     evicted
//   - ordering by age breaks ties by insertion order, never by map
//     iteration
func Evict(records []*snapshot.Record, p Policy, now time.Time) []string {
	if !p.Enabled() || len(records) == 0 {
		return nil
	}

	live := make([]entry, 0, len(records))
	for i, r := range records {
		if r == nil || r.Status == snapshot.StatusCreating || r.Status == snapshot.StatusDeleted {
			continue
		}
		live = append(live, entry{rec: r, pos: i})
	}
	if len(live) == 0 {
		return nil
	}

	// Oldest first; insertion order decides equal timestamps.
	byAge := make([]entry, len(live))
	copy(byAge, live)
	sort.SliceStable(byAge, func(i, j int) bool {
		if byAge[i].rec.CreatedAt.Equal(byAge[j].rec.CreatedAt) {
			return byAge[i].pos < byAge[j].pos
		}
		return byAge[i].rec.CreatedAt.Before(byAge[j].rec.CreatedAt)
	})

	evict := make(map[string]bool)

	// Age dimension: completed and failed both age out.
	if p.MaxAge > 0 {
		cutoff := now.Add(-p.MaxAge)
		for _, e := range byAge {
			if e.rec.CreatedAt.Before(cutoff) {
				evict[e.rec.ID] = true
			}
		}
	}

	// Per-target count dimension.
	if p.MaxPerTarget > 0 {
		perTarget := make(map[string][]entry)
		for _, e := range byAge {
			perTarget[e.rec.TargetID] = append(perTarget[e.rec.TargetID], e)
		}
		// Deterministic target order for reproducible logs; the result
		// set is order-independent anyway.
		targets := make([]string, 0, len(perTarget))
		for t := range perTarget {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			markCountEvictions(perTarget[t], p.MaxPerTarget, evict)
		}
	}

	// Total count dimension.
	if p.MaxTotal > 0 {
		markCountEvictions(byAge, p.MaxTotal, evict)
	}

	// Size dimension: evict oldest-first until the completed total fits
	// the budget. Failed records encountered on the way out go too.
	if p.MaxTotalBytes > 0 {
		var total int64
		for _, e := range byAge {
			if e.rec.Status == snapshot.StatusCompleted && !evict[e.rec.ID] {
				total += e.rec.SizeBytes
			}
		}
		for _, e := range byAge {
			if total <= p.MaxTotalBytes {
				break
			}
			if evict[e.rec.ID] {
				continue
			}
			evict[e.rec.ID] = true
			if e.rec.Status == snapshot.StatusCompleted {
				total -= e.rec.SizeBytes
			}
		}
	}

	// Emit in insertion order so callers observe a stable result.
	out := make([]string, 0, len(evict))
	for _, e := range live {
		if evict[e.rec.ID] {
			out = append(out, e.rec.ID)
		}
	}
	return out
}

// entry pairs a record with its index (insertion) position, the ordering
// tie-break.
type entry struct {
	rec *snapshot.Record
	pos int
}

// markCountEvictions applies a completed-count limit to oldest-first
// entries, marking evictions in place. Failed records older than the
// oldest surviving completed record are swept along.
func markCountEvictions(oldestFirst []entry, limit int, evict map[string]bool) {
	completed := 0
	for _, e := range oldestFirst {
		if e.rec.Status == snapshot.StatusCompleted && !evict[e.rec.ID] {
			completed++
		}
	}
	if completed <= limit {
		return
	}

	excess := completed - limit
	var lastEvictedPos = -1
	for _, e := range oldestFirst {
		if excess == 0 {
			break
		}
		if e.rec.Status != snapshot.StatusCompleted || evict[e.rec.ID] {
			continue
		}
		evict[e.rec.ID] = true
		lastEvictedPos = e.pos
		excess--
	}

	// Sweep failed records no newer than the eviction frontier.
	for _, e := range oldestFirst {
		if e.rec.Status == snapshot.StatusFailed && e.pos < lastEvictedPos {
			evict[e.rec.ID] = true
		}
	}
}
