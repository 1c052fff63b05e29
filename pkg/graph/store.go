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

package graph

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a node lookup misses.
var ErrNotFound = errors.New("graph: node not found")

// ErrClosed is returned when the store has been closed.
var ErrClosed = errors.New("graph: store is closed")

// Node is a labeled node in the property graph.
type Node struct {
	// ID is the unique node identifier. Deterministic for entities that
	// are derived from repository content (files, structural nodes),
	// random UUIDs for run-scoped artifacts (investigations, findings).
	ID string

	// Labels classify the node (see Label* constants in schema.go).
	Labels []string

	// Props holds the node's properties. Values must round-trip through
	// JSON; readers should use the prop* accessors to tolerate numeric
	// widening.
	Props map[string]any
}

// HasLabel reports whether the node carries the given label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is a typed, directed edge between two nodes.
type Relationship struct {
	From  string
	To    string
	Type  string
	Props map[string]any
}

// Tx is a single graph transaction. Read-only transactions are handed out
// by Store.View, read-write transactions by Store.Update. A Tx must not be
// used outside the closure it was passed to.
type Tx interface {
	// PutNode creates or replaces a node. Replacing re-labels the node
	// and overwrites its properties; existing relationships are kept.
	PutNode(n *Node) error

	// GetNode fetches a node by ID. Returns ErrNotFound on miss.
	GetNode(id string) (*Node, error)

	// NodesByLabel returns all nodes carrying the label. Order is not
	// defined.
	NodesByLabel(label string) ([]*Node, error)

	// CreateRelationship creates a typed edge. Both endpoints must
	// already exist in the transaction's view; creating the same
	// (from, type, to) triple twice overwrites the edge properties.
	CreateRelationship(rel *Relationship) error

	// Out returns the nodes reachable from id over one outgoing edge of
	// the given type.
	Out(id, relType string) ([]*Node, error)

	// In returns the nodes with an edge of the given type pointing at id.
	In(id, relType string) ([]*Node, error)
}

// Store is the transactional interface to the property graph. It is the
// single source of truth for all durable Ariadne state; conflicting writes
// are serialized by the backend's transaction isolation.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction. The transaction commits
	// only if fn returns nil; any error discards every write made inside
	// the closure.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the backend. Close is idempotent; transactions
	// started after Close return ErrClosed.
	Close() error
}
