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

// Package store persists snapshot records.
//
// # Layout
//
// FileStore keeps a human-inspectable directory:
//
//	<base>/
//	    .stasis.lock      exclusive flock, one process per store
//	    index.json        derived index: id -> summary, ordered id lists
//	    records/
//	        <id>.json     one full record per file
//
// # Durability model
//
// Record bodies are authoritative; the index is a cache. Every file write
// goes through temp-file-then-rename, so a reader (or a crash) never sees
// a half-written file. Put writes the body before the index entry, and
// Delete removes the body before the index entry, so any crash window
// leaves a state that Reconcile converges: an unindexed body is
// re-indexed, an entry with no body is dropped.
//
// Put and Delete on the same id are serialized by a per-id latch; other
// ids are unaffected. There is no global record write lock.
package store
