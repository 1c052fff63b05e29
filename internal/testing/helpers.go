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

// Package testing provides shared fixtures: an in-memory graph store and
// seeding helpers for repositories, structural nodes and investigations.
//
//	store := testing.SetupStore(t)
//	repoID := testing.SeedRepository(t, store, "webapp",
//	    testing.SeedFile{Path: "main.go", Functions: []string{"main", "readInput"}},
//	)
//	invID := testing.SeedInvestigation(t, store, repoID, "first pass")
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// SetupStore creates an in-memory graph store, closed when the test ends.
func SetupStore(t *testing.T) graph.Store {
	t.Helper()

	store, err := graph.NewEmbeddedStore(graph.EmbeddedConfig{InMemory: true})
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedFile describes one file to seed: its path and the names of the
// function nodes it defines.
type SeedFile struct {
	Path      string
	Functions []string
}

// SeedRepository writes a repository with the given files and returns the
// repository ID.
func SeedRepository(t *testing.T, store graph.Store, name string, files ...SeedFile) string {
	t.Helper()

	repo := &graph.Repository{Name: name, Source: "/src/" + name, IngestedAt: time.Now()}
	err := store.Update(context.Background(), func(tx graph.Tx) error {
		if err := graph.PutRepository(tx, repo); err != nil {
			return err
		}
		for _, f := range files {
			file := &graph.File{RepositoryID: repo.ID, Path: f.Path, Language: "go", Size: 256}
			if err := graph.PutFile(tx, file); err != nil {
				return err
			}
			for i, fn := range f.Functions {
				sn := &graph.StructuralNode{
					RepositoryID: repo.ID,
					FileID:       file.ID,
					Name:         fn,
					Kind:         graph.KindFunction,
					StartLine:    i*10 + 1,
					EndLine:      i*10 + 5,
				}
				if err := graph.PutStructuralNode(tx, sn); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed repository %s: %v", name, err)
	}
	return repo.ID
}

// SeedInvestigation writes an in-progress investigation over the
// repository and returns its ID.
func SeedInvestigation(t *testing.T, store graph.Store, repoID, title string) string {
	t.Helper()

	inv := &graph.Investigation{
		ID:           uuid.NewString(),
		RepositoryID: repoID,
		Title:        title,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	err := store.Update(context.Background(), func(tx graph.Tx) error {
		return graph.PutInvestigation(tx, inv)
	})
	if err != nil {
		t.Fatalf("seed investigation %q: %v", title, err)
	}
	return inv.ID
}

// SeedSummary attaches a summary to a structural node.
func SeedSummary(t *testing.T, store graph.Store, nodeID, text string) {
	t.Helper()

	err := store.Update(context.Background(), func(tx graph.Tx) error {
		return graph.PutSummary(tx, &graph.Summary{NodeID: nodeID, Text: text, Model: "test", CreatedAt: time.Now()})
	})
	if err != nil {
		t.Fatalf("seed summary: %v", err)
	}
}

// NodeByName finds a seeded structural node by name.
func NodeByName(t *testing.T, store graph.Store, repoID, name string) *graph.StructuralNode {
	t.Helper()

	var found *graph.StructuralNode
	err := store.View(context.Background(), func(tx graph.Tx) error {
		nodes, err := graph.StructuralNodesOfRepository(tx, repoID)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if n.Name == name {
				found = n
				return nil
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("find node %q: %v", name, err)
	}
	if found == nil {
		t.Fatalf("node %q not seeded in repository %s", name, repoID)
	}
	return found
}
