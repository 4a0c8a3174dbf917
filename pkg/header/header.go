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

package header

import (
	"time"
)

// APIVersionV1 is the current stable schema version.
const APIVersionV1 = "v1"

// Kind represents the type of a Stasis resource.
type Kind string

// Valid Kind constants for all Stasis resource types.
const (
	KindSnapshot      Kind = "Snapshot"
	KindSnapshotList  Kind = "SnapshotList"
	KindSnapshotStats Kind = "SnapshotStats"
	KindCleanupResult Kind = "CleanupResult"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the recognized kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindSnapshot, KindSnapshotList, KindSnapshotStats, KindCleanupResult:
		return true
	default:
		return false
	}
}

// Header carries metadata and versioning information for Stasis
// resources, following Kubernetes-style Kind/APIVersion conventions.
type Header struct {
	// Kind is the type of the resource.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is the schema version of the resource.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`

	// Metadata contains key-value pairs with metadata about the resource.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init populates the Header with the given kind and tool version, plus
// a generation timestamp in RFC3339.
func (h *Header) Init(kind Kind, version string) {
	h.Kind = kind
	h.APIVersion = APIVersionV1
	h.Metadata = make(map[string]string)
	h.Metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if version != "" {
		h.Metadata["version"] = version
	}
}
