// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownIngestion is returned when no run with the given id is
// tracked, either because it never existed or was evicted.
var ErrUnknownIngestion = errors.New("ingest: unknown ingestion id")

// State is the lifecycle state of one ingestion run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// FileError records one isolated per-file failure.
type FileError struct {
	Path    string `json:"path"`
	Stage   string `json:"stage"` // "parse", "materialize" or "summarize"
	Message string `json:"message"`
}

// Status is an immutable snapshot of one ingestion run.
type Status struct {
	ID           string        `json:"id"`
	State        State         `json:"state"`
	Source       string        `json:"source"`
	RepositoryID string        `json:"repository_id,omitempty"`
	FilesScanned int           `json:"files_scanned"`
	FilesParsed  int           `json:"files_parsed"`
	FilesFailed  int           `json:"files_failed"`
	NodesCreated int           `json:"nodes_created"`
	Summaries    int           `json:"summaries"`
	Errors       []FileError   `json:"errors,omitempty"`
	Error        string        `json:"error,omitempty"` // fatal error for failed runs
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at,omitzero"`
	TimeElapsed  time.Duration `json:"time_elapsed"`
}

// maxTrackedRuns bounds the registry. Terminal runs beyond the bound are
// evicted oldest-first; active runs are never evicted.
const maxTrackedRuns = 256

// registry tracks run statuses in-process.
type registry struct {
	mu    sync.Mutex
	runs  map[string]*runState
	order []string // insertion order, for eviction
}

// runState is the mutable tracker behind Status snapshots.
type runState struct {
	status Status
	cancel func()
}

func newRegistry() *registry {
	return &registry{runs: make(map[string]*runState)}
}

// add registers a new pending run and evicts old terminal runs if the
// bound is exceeded.
func (r *registry) add(id, source string, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[id] = &runState{
		status: Status{
			ID:        id,
			State:     StatePending,
			Source:    source,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	r.order = append(r.order, id)
	r.evictLocked()
}

func (r *registry) evictLocked() {
	if len(r.runs) <= maxTrackedRuns {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		rs, ok := r.runs[id]
		if !ok {
			continue
		}
		if len(r.runs) > maxTrackedRuns && rs.status.State.Terminal() {
			delete(r.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

// get returns a snapshot with TimeElapsed computed at call time.
func (r *registry) get(id string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.runs[id]
	if !ok {
		return Status{}, ErrUnknownIngestion
	}
	return snapshotLocked(rs), nil
}

// list returns snapshots of every tracked run, oldest first.
func (r *registry) list() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.runs))
	for _, id := range r.order {
		if rs, ok := r.runs[id]; ok {
			out = append(out, snapshotLocked(rs))
		}
	}
	return out
}

func snapshotLocked(rs *runState) Status {
	s := rs.status
	s.Errors = append([]FileError(nil), rs.status.Errors...)
	if s.State.Terminal() {
		s.TimeElapsed = s.FinishedAt.Sub(s.StartedAt)
	} else {
		s.TimeElapsed = time.Since(s.StartedAt)
	}
	return s
}

// update mutates a run's status under the registry lock.
func (r *registry) update(id string, fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.runs[id]; ok {
		fn(&rs.status)
	}
}

// finish moves a run to a terminal state. Transitions out of a terminal
// state are ignored, so a cancel landing after completion is a no-op.
func (r *registry) finish(id string, state State, fatal string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.runs[id]
	if !ok || rs.status.State.Terminal() {
		return
	}
	rs.status.State = state
	rs.status.Error = fatal
	rs.status.FinishedAt = time.Now()
	rs.cancel = nil
}

// requestCancel fires the run's cancel func. Cancelling an unknown run is
// an error; cancelling a terminal run is a no-op.
func (r *registry) requestCancel(id string) error {
	r.mu.Lock()
	rs, ok := r.runs[id]
	if !ok {
		r.mu.Unlock()
		return ErrUnknownIngestion
	}
	cancel := rs.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
