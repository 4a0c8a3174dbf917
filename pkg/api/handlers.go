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

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stasis-io/stasis/pkg/defaults"
	apperrors "github.com/stasis-io/stasis/pkg/errors"
	"github.com/stasis-io/stasis/pkg/header"
	"github.com/stasis-io/stasis/pkg/manager"
	"github.com/stasis-io/stasis/pkg/provider"
	"github.com/stasis-io/stasis/pkg/retention"
	"github.com/stasis-io/stasis/pkg/serializer"
	"github.com/stasis-io/stasis/pkg/server"
	"github.com/stasis-io/stasis/pkg/snapshot"
)

// maxBodyBytes caps request body reads.
const maxBodyBytes = 1 << 20 // 1 MiB

// Handler exposes the snapshot orchestrator over HTTP.
type Handler struct {
	mgr     *manager.Manager
	version string
}

// NewHandler creates an API handler around the given orchestrator.
func NewHandler(mgr *manager.Manager, version string) *Handler {
	return &Handler{mgr: mgr, version: version}
}

// Routes returns the route table for registration with the server.
func (h *Handler) Routes() map[string]http.Handler {
	return map[string]http.Handler{
		"POST /v1/snapshots":              http.HandlerFunc(h.handleCreate),
		"GET /v1/snapshots":               http.HandlerFunc(h.handleList),
		"GET /v1/snapshots/{id}":          http.HandlerFunc(h.handleGet),
		"DELETE /v1/snapshots/{id}":       http.HandlerFunc(h.handleDelete),
		"POST /v1/snapshots/{id}/restore": http.HandlerFunc(h.handleRestore),
		"POST /v1/cleanup":                http.HandlerFunc(h.handleCleanup),
		"GET /v1/stats":                   http.HandlerFunc(h.handleStats),
	}
}

// CreateRequest is the body for POST /v1/snapshots.
type CreateRequest struct {
	TargetID    string            `json:"targetId"`
	Trigger     string            `json:"trigger,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	RunID       string            `json:"runId,omitempty"`
	ActionName  string            `json:"actionName,omitempty"`
}

// RestoreRequest is the body for POST /v1/snapshots/{id}/restore.
type RestoreRequest struct {
	Name   string            `json:"name,omitempty"`
	Start  bool              `json:"start,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// RestoreResponse reports the target created by a restore.
type RestoreResponse struct {
	Header   header.Header `json:"header"`
	TargetID string        `json:"targetId"`
}

// ListResponse wraps a snapshot listing.
type ListResponse struct {
	Header header.Header      `json:"header"`
	Count  int                `json:"count"`
	Items  []*snapshot.Record `json:"items"`
}

// CleanupRequest optionally overrides retention limits for one pass.
type CleanupRequest struct {
	MaxPerTarget  int   `json:"maxPerTarget,omitempty"`
	MaxTotal      int   `json:"maxTotal,omitempty"`
	MaxAgeDays    int   `json:"maxAgeDays,omitempty"`
	MaxTotalBytes int64 `json:"maxTotalBytes,omitempty"`
}

// CleanupResponse reports the snapshots evicted by a cleanup pass.
type CleanupResponse struct {
	Header  header.Header `json:"header"`
	Count   int           `json:"count"`
	Evicted []string      `json:"evicted"`
}

// StatsResponse wraps aggregate store statistics.
type StatsResponse struct {
	Header header.Header   `json:"header"`
	Stats  *snapshot.Stats `json:"stats"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteAppError(w, r, err)
		return
	}
	if req.TargetID == "" {
		server.WriteAppError(w, r,
			apperrors.New(apperrors.ErrCodeInvalid, "targetId is required"))
		return
	}

	trigger := snapshot.TriggerManual
	if req.Trigger != "" {
		trigger = snapshot.Trigger(req.Trigger)
		if !trigger.IsValid() {
			server.WriteAppError(w, r,
				apperrors.Newf(apperrors.ErrCodeInvalid, "unknown trigger: %s", req.Trigger))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.SnapshotHandlerTimeout)
	defer cancel()

	rec, err := h.mgr.Create(ctx, req.TargetID, trigger, manager.CreateOptions{
		Description: req.Description,
		Labels:      req.Labels,
		RunID:       req.RunID,
		ActionName:  req.ActionName,
	})
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ListHandlerTimeout)
	defer cancel()

	filter := snapshot.Filter{
		TargetID: r.URL.Query().Get("target"),
		Trigger:  snapshot.Trigger(r.URL.Query().Get("trigger")),
		Status:   snapshot.Status(r.URL.Query().Get("status")),
	}
	if filter.Trigger != "" && !filter.Trigger.IsValid() {
		server.WriteAppError(w, r,
			apperrors.Newf(apperrors.ErrCodeInvalid, "unknown trigger: %s", filter.Trigger))
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		server.WriteAppError(w, r,
			apperrors.Newf(apperrors.ErrCodeInvalid, "unknown status: %s", filter.Status))
		return
	}

	records, err := h.mgr.List(ctx, filter)
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	resp := ListResponse{Count: len(records), Items: records}
	resp.Header.Init(header.KindSnapshotList, h.version)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ListHandlerTimeout)
	defer cancel()

	rec, err := h.mgr.Get(ctx, r.PathValue("id"))
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.CleanupHandlerTimeout)
	defer cancel()

	if err := h.mgr.Delete(ctx, r.PathValue("id")); err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.SnapshotHandlerTimeout)
	defer cancel()

	targetID, err := h.mgr.Restore(ctx, r.PathValue("id"), req.Name, provider.RestoreOptions{
		Start:  req.Start,
		Labels: req.Labels,
	})
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	resp := RestoreResponse{TargetID: targetID}
	resp.Header.Init(header.KindSnapshot, h.version)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := decodeBody(r, &req); err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.CleanupHandlerTimeout)
	defer cancel()

	var override *retention.Policy
	if req.MaxPerTarget > 0 || req.MaxTotal > 0 || req.MaxAgeDays > 0 || req.MaxTotalBytes > 0 {
		override = &retention.Policy{
			MaxPerTarget:  req.MaxPerTarget,
			MaxTotal:      req.MaxTotal,
			MaxAge:        time.Duration(req.MaxAgeDays) * 24 * time.Hour,
			MaxTotalBytes: req.MaxTotalBytes,
		}
	}

	evicted, err := h.mgr.Cleanup(ctx, override)
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}
	if evicted == nil {
		evicted = []string{}
	}

	resp := CleanupResponse{Count: len(evicted), Evicted: evicted}
	resp.Header.Init(header.KindCleanupResult, h.version)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.ListHandlerTimeout)
	defer cancel()

	stats, err := h.mgr.Stats(ctx)
	if err != nil {
		server.WriteAppError(w, r, err)
		return
	}

	resp := StatsResponse{Stats: stats}
	resp.Header.Init(header.KindSnapshotStats, h.version)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

// decodeBody parses a JSON request body into out. An empty body leaves
// out at its zero value.
func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalid, "failed to read request body", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalid, "malformed request body", err)
	}
	return nil
}
