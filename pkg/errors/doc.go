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

// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// The error codes cover the snapshot engine's taxonomy (invalid request,
// not found, conflict, provider failure, not supported, storage failure)
// plus the generic codes used by the API server.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeProviderFailure,
//	    "failed to commit container state",
//	    cmdErr,
//	    map[string]interface{}{
//	        "target": targetID,
//	        "tag":    tagHint,
//	    },
//	)
//
// Callers dispatch on the taxonomy with CodeOf or IsCode:
//
//	if errors.IsCode(err, errors.ErrCodeConflict) {
//	    // snapshot already in flight for this target
//	}
package errors
