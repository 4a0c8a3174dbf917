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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stasis-io/stasis/pkg/errors"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := NewConfig()
	cfg.Handlers = map[string]http.Handler{
		"GET /v1/ping": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewServer(cfg)
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "45")

	cfg := NewConfig()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadyEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()

	rec = httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthRejectsNonGet(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	s := newTestServer(t, nil)
	var seen string
	h := s.requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDMiddlewarePreservesValid(t *testing.T) {
	s := newTestServer(t, nil)
	id := uuid.New().String()
	h := s.requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("X-Request-Id", id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDMiddlewareReplacesInvalid(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.requestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("X-Request-Id", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-Id")
	assert.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) {
		cfg.RateLimit = 1
		cfg.RateLimitBurst = 1
	})
	h := s.rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeRateLimitExceeded), resp.Code)
	assert.True(t, resp.Retryable)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.panicRecoveryMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeInternal), resp.Code)
}

func TestVersionNegotiation(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{name: "no header", accept: "", want: "v1"},
		{name: "plain json", accept: "application/json", want: "v1"},
		{name: "vendor v1", accept: "application/vnd.stasis.v1+json", want: "v1"},
		{name: "unsupported version", accept: "application/vnd.stasis.v9+json", want: "v1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			assert.Equal(t, tc.want, negotiateAPIVersion(req))
		})
	}
}

func TestDefaultRouteListsEndpoints(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) {
		cfg.Name = "stasisd"
		cfg.Version = "v0.1.0"
	})

	rec := httptest.NewRecorder()
	s.handleDefault(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name    string   `json:"name"`
		Version string   `json:"version"`
		Routes  []string `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "stasisd", resp.Name)
	assert.Contains(t, resp.Routes, "GET /v1/ping")
	assert.Contains(t, resp.Routes, "GET /healthz")
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code apperrors.ErrorCode
		want int
	}{
		{apperrors.ErrCodeInvalid, http.StatusBadRequest},
		{apperrors.ErrCodeNotFound, http.StatusNotFound},
		{apperrors.ErrCodeConflict, http.StatusConflict},
		{apperrors.ErrCodeNotSupported, http.StatusNotImplemented},
		{apperrors.ErrCodeProviderFailure, http.StatusBadGateway},
		{apperrors.ErrCodeStorageFailure, http.StatusBadGateway},
		{apperrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{apperrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StatusForCode(tc.code), string(tc.code))
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(apperrors.ErrCodeConflict))
	assert.True(t, Retryable(apperrors.ErrCodeStorageFailure))
	assert.False(t, Retryable(apperrors.ErrCodeInvalid))
	assert.False(t, Retryable(apperrors.ErrCodeNotFound))
}

func TestWriteAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/snapshots/missing", nil)
	WriteAppError(rec, req, apperrors.New(apperrors.ErrCodeNotFound, "snapshot not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeNotFound), resp.Code)
	assert.False(t, resp.Retryable)
	assert.NotEmpty(t, resp.RequestID)
}

func TestResponseWriterTracksStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK) // ignored

	assert.Equal(t, http.StatusTeapot, rw.Status())
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestResponseWriterDefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	_, err := rw.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rw.Status())
}
