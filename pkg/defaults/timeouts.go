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

package defaults

import "time"

// Provider timeouts for capture/restore operations.
const (
	// ProviderValidateTimeout bounds target validation calls.
	ProviderValidateTimeout = 10 * time.Second

	// ProviderCaptureTimeout bounds a single state capture. Container
	// commits on large filesystems can take minutes.
	ProviderCaptureTimeout = 5 * time.Minute

	// ProviderRestoreTimeout bounds restoring a new target from a
	// captured artifact.
	ProviderRestoreTimeout = 5 * time.Minute

	// ProviderRemoveTimeout bounds artifact removal.
	ProviderRemoveTimeout = 60 * time.Second
)

// Store timeouts and limits.
const (
	// StoreFlockTimeout is how long a FileStore waits to acquire the
	// base-directory lock before concluding another process owns it.
	StoreFlockTimeout = 5 * time.Second

	// StoreFlockRetryDelay is the poll interval while waiting for the
	// base-directory lock.
	StoreFlockRetryDelay = 100 * time.Millisecond
)

// Handler timeouts for HTTP request processing.
const (
	// SnapshotHandlerTimeout is the timeout for snapshot create requests.
	// Dominated by provider capture time.
	SnapshotHandlerTimeout = 6 * time.Minute

	// ListHandlerTimeout is the timeout for read-only requests.
	ListHandlerTimeout = 30 * time.Second

	// CleanupHandlerTimeout is the timeout for retention cleanup requests.
	CleanupHandlerTimeout = 2 * time.Minute
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// Must exceed SnapshotHandlerTimeout so in-flight captures can respond.
	ServerWriteTimeout = 7 * time.Minute

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)
