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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stasis-io/stasis/pkg/snapshot"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(id, target string, status snapshot.Status, age time.Duration, size int64) *snapshot.Record {
	return &snapshot.Record{
		ID:        id,
		TargetID:  target,
		CreatedAt: now.Add(-age),
		Status:    status,
		SizeBytes: size,
	}
}

func TestEvictDisabledPolicy(t *testing.T) {
	records := []*snapshot.Record{
		rec("a", "web", snapshot.StatusCompleted, time.Hour, 10),
	}
	assert.Nil(t, Evict(records, Policy{}, now))
}

func TestEvictMaxPerTarget(t *testing.T) {
	// 5 completed with distinct timestamps, max 3: exactly the 2 oldest go.
	var records []*snapshot.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec(
			fmt.Sprintf("s%d", i), "web", snapshot.StatusCompleted,
			time.Duration(5-i)*time.Hour, 10))
	}

	got := Evict(records, Policy{MaxPerTarget: 3}, now)
	assert.Equal(t, []string{"s0", "s1"}, got)
}

func TestEvictMaxPerTargetIndependentTargets(t *testing.T) {
	records := []*snapshot.Record{
		rec("w1", "web", snapshot.StatusCompleted, 4*time.Hour, 10),
		rec("w2", "web", snapshot.StatusCompleted, 3*time.Hour, 10),
		rec("d1", "db", snapshot.StatusCompleted, 2*time.Hour, 10),
	}

	got := Evict(records, Policy{MaxPerTarget: 1}, now)
	assert.Equal(t, []string{"w1"}, got, "db is under its own limit")
}

func TestEvictNeverTouchesCreating(t *testing.T) {
	records := []*snapshot.Record{
		rec("old", "web", snapshot.StatusCreating, 100*24*time.Hour, 10),
		rec("new", "web", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxAge: 24 * time.Hour, MaxPerTarget: 1, MaxTotal: 1}, now)
	assert.Empty(t, got, "creating records are never eviction targets")
}

func TestEvictIgnoresDeleted(t *testing.T) {
	records := []*snapshot.Record{
		rec("gone", "web", snapshot.StatusDeleted, 10*time.Hour, 10),
		rec("a", "web", snapshot.StatusCompleted, 2*time.Hour, 10),
		rec("b", "web", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxPerTarget: 2}, now)
	assert.Empty(t, got, "deleted records must not count against the limit")
}

func TestEvictMaxAge(t *testing.T) {
	records := []*snapshot.Record{
		rec("old-completed", "web", snapshot.StatusCompleted, 10*24*time.Hour, 10),
		rec("old-failed", "web", snapshot.StatusFailed, 9*24*time.Hour, 0),
		rec("recent", "web", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxAge: 5 * 24 * time.Hour}, now)
	assert.Equal(t, []string{"old-completed", "old-failed"}, got)
}

func TestEvictFailedExcludedFromCount(t *testing.T) {
	// 3 completed + 2 failed with max 3: the failed records do not push
	// the completed over the limit.
	records := []*snapshot.Record{
		rec("f1", "web", snapshot.StatusFailed, 5*time.Hour, 0),
		rec("c1", "web", snapshot.StatusCompleted, 4*time.Hour, 10),
		rec("c2", "web", snapshot.StatusCompleted, 3*time.Hour, 10),
		rec("f2", "web", snapshot.StatusFailed, 2*time.Hour, 0),
		rec("c3", "web", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxPerTarget: 3}, now)
	assert.Empty(t, got)
}

func TestEvictCountSweepsOlderFailed(t *testing.T) {
	// When the count limit evicts c1, the failed record older than it
	// goes too.
	records := []*snapshot.Record{
		rec("f1", "web", snapshot.StatusFailed, 6*time.Hour, 0),
		rec("c1", "web", snapshot.StatusCompleted, 5*time.Hour, 10),
		rec("c2", "web", snapshot.StatusCompleted, 4*time.Hour, 10),
		rec("c3", "web", snapshot.StatusCompleted, 3*time.Hour, 10),
	}

	got := Evict(records, Policy{MaxPerTarget: 2}, now)
	assert.ElementsMatch(t, []string{"f1", "c1"}, got)
}

func TestEvictMaxTotal(t *testing.T) {
	records := []*snapshot.Record{
		rec("w1", "web", snapshot.StatusCompleted, 4*time.Hour, 10),
		rec("d1", "db", snapshot.StatusCompleted, 3*time.Hour, 10),
		rec("w2", "web", snapshot.StatusCompleted, 2*time.Hour, 10),
		rec("d2", "db", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxTotal: 2}, now)
	assert.Equal(t, []string{"w1", "d1"}, got)
}

func TestEvictMaxTotalBytes(t *testing.T) {
	records := []*snapshot.Record{
		rec("a", "web", snapshot.StatusCompleted, 4*time.Hour, 400),
		rec("b", "web", snapshot.StatusCompleted, 3*time.Hour, 300),
		rec("c", "web", snapshot.StatusCompleted, 2*time.Hour, 200),
		rec("d", "web", snapshot.StatusCompleted, time.Hour, 100),
	}

	// Budget 350: evict a (600 left), then b (300 left, under budget).
	got := Evict(records, Policy{MaxTotalBytes: 350}, now)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEvictUnionOfLimits(t *testing.T) {
	records := []*snapshot.Record{
		rec("ancient", "db", snapshot.StatusCompleted, 30*24*time.Hour, 5),
		rec("w1", "web", snapshot.StatusCompleted, 3*time.Hour, 10),
		rec("w2", "web", snapshot.StatusCompleted, 2*time.Hour, 10),
		rec("w3", "web", snapshot.StatusCompleted, time.Hour, 10),
	}

	got := Evict(records, Policy{MaxAge: 7 * 24 * time.Hour, MaxPerTarget: 2}, now)
	assert.ElementsMatch(t, []string{"ancient", "w1"}, got)
}

func TestEvictTieBreakByInsertionOrder(t *testing.T) {
	// Identical timestamps: the earlier index entry is the older one.
	ts := 2 * time.Hour
	records := []*snapshot.Record{
		rec("first", "web", snapshot.StatusCompleted, ts, 10),
		rec("second", "web", snapshot.StatusCompleted, ts, 10),
		rec("third", "web", snapshot.StatusCompleted, ts, 10),
	}

	got := Evict(records, Policy{MaxPerTarget: 2}, now)
	assert.Equal(t, []string{"first"}, got)
}

func TestPolicyMerge(t *testing.T) {
	base := Policy{MaxPerTarget: 3, MaxAge: 24 * time.Hour}
	merged := base.Merge(Policy{MaxPerTarget: 1, MaxTotalBytes: 100})

	assert.Equal(t, 1, merged.MaxPerTarget)
	assert.Equal(t, 24*time.Hour, merged.MaxAge)
	assert.Equal(t, int64(100), merged.MaxTotalBytes)
	assert.Equal(t, 0, merged.MaxTotal)
}
