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

// Package header provides the common envelope for Stasis resources.
//
// The Header type carries Kind, APIVersion, and free-form metadata for
// anything the CLI or API emits: single snapshots, snapshot lists,
// aggregate stats, and cleanup results. It follows Kubernetes resource
// conventions so output can be consumed by the same tooling.
//
// Consumers should check APIVersion before parsing:
//
//	if h.APIVersion != header.APIVersionV1 {
//	    return fmt.Errorf("unsupported API version: %s", h.APIVersion)
//	}
package header
