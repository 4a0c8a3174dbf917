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

// Package server provides the HTTP scaffolding for the snapshot daemon.
//
// It owns the listener lifecycle (start, graceful shutdown, systemd
// readiness notification) and the middleware chain applied to every
// API handler:
//
//   - Prometheus request metrics (rate, errors, duration)
//   - API version negotiation via the Accept header
//   - request ID extraction or generation (X-Request-Id)
//   - panic recovery
//   - token-bucket rate limiting
//   - debug request logging
//
// System endpoints (/healthz, /readyz, /metrics) bypass the chain.
// Domain routes are supplied through Config.Handlers; the snapshot
// API handlers live in the api package.
package server
