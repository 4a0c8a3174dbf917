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

// Package retention decides which snapshot records are eligible for
// deletion under count, age, and size limits.
//
// The engine is a pure function over a point-in-time view of the index:
// it performs no I/O and holds no state, which keeps eviction decisions
// deterministic and trivially testable. The manager owns actually
// deleting what Evict selects.
package retention
