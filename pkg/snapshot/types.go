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

package snapshot

import (
	"time"
)

// Trigger classifies the event that caused a snapshot to be requested.
type Trigger string

// Valid Trigger constants. The set is closed; anything else is rejected.
const (
	TriggerManual       Trigger = "manual"
	TriggerRunStart     Trigger = "run_start"
	TriggerRunEnd       Trigger = "run_end"
	TriggerBeforeAction Trigger = "before_action"
	TriggerAfterAction  Trigger = "after_action"
	TriggerOnError      Trigger = "on_error"
	TriggerPeriodic     Trigger = "periodic"
)

// Triggers returns all valid trigger kinds.
func Triggers() []Trigger {
	return []Trigger{
		TriggerManual,
		TriggerRunStart,
		TriggerRunEnd,
		TriggerBeforeAction,
		TriggerAfterAction,
		TriggerOnError,
		TriggerPeriodic,
	}
}

// String returns the string representation of the Trigger.
func (t Trigger) String() string {
	return string(t)
}

// IsValid checks if the Trigger is one of the recognized kinds.
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerManual, TriggerRunStart, TriggerRunEnd, TriggerBeforeAction,
		TriggerAfterAction, TriggerOnError, TriggerPeriodic:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a snapshot record. Transitions are
// forward-only: creating moves to completed or failed, completed moves to
// deleted, and failed and deleted are terminal.
type Status string

// Valid Status constants.
const (
	StatusCreating  Status = "creating"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDeleted   Status = "deleted"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the Status is one of the recognized states.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreating, StatusCompleted, StatusFailed, StatusDeleted:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusDeleted
}

// CanTransition reports whether the state machine permits moving from s
// to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusCreating:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusDeleted
	default:
		return false
	}
}

// AgentMetadata carries structured context from the calling automation
// agent. RestorationCount increments exactly once per successful restore.
type AgentMetadata struct {
	RunID            string `json:"runId,omitempty" yaml:"runId,omitempty"`
	ActionName       string `json:"actionName,omitempty" yaml:"actionName,omitempty"`
	RestorationCount int    `json:"restorationCount" yaml:"restorationCount"`
}

// Record is one entry per captured state.
//
// ID, TargetID, TargetName, CreatedAt, and Trigger are immutable after
// creation. Status is mutated only by the orchestrator through legal
// transitions. ProviderRef is set when the record becomes completed and is
// absent otherwise.
type Record struct {
	ID          string            `json:"id" yaml:"id"`
	TargetID    string            `json:"targetId" yaml:"targetId"`
	TargetName  string            `json:"targetName" yaml:"targetName"`
	CreatedAt   time.Time         `json:"createdAt" yaml:"createdAt"`
	Trigger     Trigger           `json:"trigger" yaml:"trigger"`
	Status      Status            `json:"status" yaml:"status"`
	ProviderRef string            `json:"providerRef,omitempty" yaml:"providerRef,omitempty"`
	SizeBytes   int64             `json:"sizeBytes,omitempty" yaml:"sizeBytes,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Agent       AgentMetadata     `json:"agentMetadata" yaml:"agentMetadata"`
}

// Clone returns a deep copy of the record. Stores hand out clones so
// callers cannot mutate indexed state in place.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Labels != nil {
		c.Labels = make(map[string]string, len(r.Labels))
		for k, v := range r.Labels {
			c.Labels[k] = v
		}
	}
	return &c
}

// Filter selects records by target, trigger, and/or status. Zero values
// match everything.
type Filter struct {
	TargetID string
	Trigger  Trigger
	Status   Status
}

// Matches reports whether the record satisfies every set filter field.
func (f Filter) Matches(r *Record) bool {
	if f.TargetID != "" && r.TargetID != f.TargetID {
		return false
	}
	if f.Trigger != "" && r.Trigger != f.Trigger {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Stats aggregates counts and sizes across the store.
type Stats struct {
	TotalSnapshots int            `json:"totalSnapshots" yaml:"totalSnapshots"`
	TotalTargets   int            `json:"totalTargets" yaml:"totalTargets"`
	TotalSizeBytes int64          `json:"totalSizeBytes" yaml:"totalSizeBytes"`
	ByStatus       map[Status]int `json:"byStatus" yaml:"byStatus"`
	PerTarget      map[string]int `json:"perTarget" yaml:"perTarget"`
}
