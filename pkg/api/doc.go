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

// Package api exposes the snapshot orchestrator over HTTP.
//
// # Endpoints
//
//	POST   /v1/snapshots               create a snapshot
//	GET    /v1/snapshots               list snapshots (filter: target, trigger, status)
//	GET    /v1/snapshots/{id}          fetch one snapshot record
//	DELETE /v1/snapshots/{id}          delete a snapshot and its artifact
//	POST   /v1/snapshots/{id}/restore  restore a snapshot into a new target
//	POST   /v1/cleanup                 run a retention pass, optional limit overrides
//	GET    /v1/stats                   aggregate store statistics
//
// Errors use the shared wire format (code, message, requestId,
// retryable) with domain error codes mapped to HTTP statuses by the
// server package. Serve is the daemon entry point: it loads config,
// wires the provider and store into the orchestrator, and runs the
// HTTP server until shutdown.
package api
