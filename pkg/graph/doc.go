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

// Package graph provides the property-graph store that holds everything
// Ariadne knows about an ingested codebase: repositories, files, parsed
// structural nodes, LLM summaries, investigations and their findings.
//
// # Model
//
// The store is a directed property graph. Nodes carry one or more labels
// and a property map; relationships are typed, directed edges that may
// carry properties of their own. The label and relationship vocabulary is
// fixed by this package (see schema.go) and is the binding contract for
// every other subsystem; no query language is exposed.
//
// # Transactions
//
// All access goes through transactions:
//
//	store, _ := graph.NewEmbeddedStore(graph.EmbeddedConfig{InMemory: true})
//	defer store.Close()
//
//	err := store.Update(ctx, func(tx graph.Tx) error {
//	    return tx.PutNode(&graph.Node{
//	        ID:     "file:main.go",
//	        Labels: []string{graph.LabelFile},
//	        Props:  map[string]any{"path": "main.go"},
//	    })
//	})
//
// Update transactions are atomic: either every node and relationship
// written inside the closure is committed, or none are. The ingestion
// pipeline relies on this to avoid partially-written containment trees,
// and the analysis engine relies on it for its all-or-nothing findings
// batch.
//
// # Backend
//
// The default backend embeds BadgerDB. Persistent stores live under
// ~/.ariadne/data/<project>; tests use the in-memory engine. The typed
// helpers in entities.go wrap raw node access for the domain entities so
// callers rarely touch Node/Relationship directly.
package graph
