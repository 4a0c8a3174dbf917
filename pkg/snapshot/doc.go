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

// Package snapshot defines the snapshot data model shared by the store,
// the retention engine, the manager, and the external surfaces.
//
// A Record describes one captured state. Its Status forms a small finite
// state machine with forward-only transitions:
//
//	creating ──► completed ──► deleted
//	    │
//	    └──────► failed
//
// Status.CanTransition enforces legality; the manager is the only
// component that mutates status.
package snapshot
