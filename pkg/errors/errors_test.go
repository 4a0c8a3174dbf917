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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "snapshot not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "snapshot not found" {
		t.Errorf("expected message 'snapshot not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeStorageFailure, "put failed", cause)

	if err.Code != ErrCodeStorageFailure {
		t.Errorf("expected code %s, got %s", ErrCodeStorageFailure, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("exit status 1")
	ctx := map[string]interface{}{
		"target": "web",
		"tag":    "stasis-web-manual",
	}
	err := WrapWithContext(ErrCodeProviderFailure, "capture failed", cause, ctx)

	if err.Context["target"] != "web" {
		t.Errorf("expected context target 'web', got %v", err.Context["target"])
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeConflict, "snapshot in progress"),
			want: "[CONFLICT] snapshot in progress",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInternal, "operation failed", errors.New("boom")),
			want: "[INTERNAL] operation failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}

	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %q, want %q", got, ErrCodeInternal)
	}

	err := New(ErrCodeNotSupported, "restore not implemented")
	if got := CodeOf(err); got != ErrCodeNotSupported {
		t.Errorf("CodeOf = %q, want %q", got, ErrCodeNotSupported)
	}

	// Code survives fmt wrapping.
	wrapped := fmt.Errorf("calling provider: %w", err)
	if !IsCode(wrapped, ErrCodeNotSupported) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
}
