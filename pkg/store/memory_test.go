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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec := newTestRecord("s1", "web", snapshot.StatusCompleted)
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "web", got.TargetID)

	// The store hands out copies, not aliases.
	got.Status = snapshot.StatusFailed
	again, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusCompleted, again.Status)
}

func TestMemStoreRejectsIllegalStatusTransition(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newTestRecord("s1", "web", snapshot.StatusDeleted)))

	// deleted is terminal; rewriting the record as completed must fail.
	back := newTestRecord("s1", "web", snapshot.StatusCompleted)
	err := s.Put(ctx, back)
	require.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusDeleted, got.Status)
}

func TestMemStoreAllowsForwardTransitionsAndRewrites(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	rec := newTestRecord("s1", "web", snapshot.StatusCreating)
	require.NoError(t, s.Put(ctx, rec))

	rec.Status = snapshot.StatusCompleted
	require.NoError(t, s.Put(ctx, rec))

	// Same-status rewrite carries metadata updates through.
	rec.Agent.RestorationCount = 1
	require.NoError(t, s.Put(ctx, rec))

	rec.Status = snapshot.StatusDeleted
	require.NoError(t, s.Put(ctx, rec))

	rec.Status = snapshot.StatusCreating
	err := s.Put(ctx, rec)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))
}

func TestMemStoreDeleteNotFound(t *testing.T) {
	s := NewMemStore()
	err := s.Delete(context.Background(), "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestMemStoreListFilterAndOrder(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newTestRecord("a", "web", snapshot.StatusCompleted)))
	require.NoError(t, s.Put(ctx, newTestRecord("b", "db", snapshot.StatusCompleted)))
	require.NoError(t, s.Put(ctx, newTestRecord("c", "web", snapshot.StatusDeleted)))

	all, err := s.List(ctx, snapshot.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	web, err := s.List(ctx, snapshot.Filter{TargetID: "web"})
	require.NoError(t, err)
	require.Len(t, web, 1)
}

func TestMemStoreStats(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	a := newTestRecord("a", "web", snapshot.StatusCompleted)
	a.SizeBytes = 10
	require.NoError(t, s.Put(ctx, a))
	require.NoError(t, s.Put(ctx, newTestRecord("b", "db", snapshot.StatusCreating)))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalSnapshots)
	assert.Equal(t, 2, st.TotalTargets)
	assert.Equal(t, int64(10), st.TotalSizeBytes)
}
