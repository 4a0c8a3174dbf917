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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Snapshot lifecycle metrics
	createDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stasis_snapshot_create_duration_seconds",
			Help:    "Time taken to create a snapshot end to end",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	createsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stasis_snapshot_creates_total",
			Help: "Total snapshot create attempts",
		},
		[]string{"status"}, // completed, failed, conflict
	)

	restoresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stasis_snapshot_restores_total",
			Help: "Total successful snapshot restores",
		},
	)

	deletesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stasis_snapshot_deletes_total",
			Help: "Total successful snapshot deletions",
		},
	)

	cleanupEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stasis_cleanup_evictions_total",
			Help: "Total snapshots evicted by retention",
		},
	)

	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stasis_provider_call_duration_seconds",
			Help:    "Time taken by individual provider calls",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"operation"}, // validate, capture, restore, remove
	)

	// Store gauges refreshed on Stats
	storeRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stasis_store_records",
			Help: "Active (non-deleted) snapshot records in the store",
		},
	)

	storeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stasis_store_bytes",
			Help: "Total size of completed snapshots in the store",
		},
	)
)
