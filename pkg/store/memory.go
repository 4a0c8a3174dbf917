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
	"sync"

	"github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// MemStore is an in-memory Store with the same contract as FileStore.
// Intended for tests and for wiring the manager without touching disk.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*snapshot.Record
	order   []string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]*snapshot.Record),
	}
}

// Put inserts or replaces the record by id. Status changes against an
// existing record must follow the lifecycle state machine.
func (s *MemStore) Put(_ context.Context, rec *snapshot.Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New(errors.ErrCodeInvalid, "record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, known := s.records[rec.ID]; !known {
		s.order = append(s.order, rec.ID)
	} else if err := checkTransition(prior.Status, rec.Status, rec.ID); err != nil {
		return err
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Get returns a copy of the record by id.
func (s *MemStore) Get(_ context.Context, id string) (*snapshot.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "snapshot %s not found", id)
	}
	return rec.Clone(), nil
}

// List returns matching records in creation order.
func (s *MemStore) List(_ context.Context, filter snapshot.Filter) ([]*snapshot.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*snapshot.Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Status == snapshot.StatusDeleted && filter.Status != snapshot.StatusDeleted {
			continue
		}
		if filter.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Delete removes the record.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.Newf(errors.ErrCodeNotFound, "snapshot %s not found", id)
	}
	delete(s.records, id)
	s.order = removeID(s.order, id)
	return nil
}

// Stats aggregates over all records.
func (s *MemStore) Stats(_ context.Context) (*snapshot.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string]Summary, len(s.records))
	for id, rec := range s.records {
		entries[id] = summarize(rec)
	}
	return statsFromIndex(entries), nil
}

// Reconcile is a no-op: memory has no crash window.
func (s *MemStore) Reconcile(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemStore) Close() error {
	return nil
}
