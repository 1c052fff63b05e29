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

package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ariadne/pkg/graph"
)

func TestSeedRepository(t *testing.T) {
	store := SetupStore(t)
	repoID := SeedRepository(t, store, "webapp",
		SeedFile{Path: "main.go", Functions: []string{"main", "readInput"}},
		SeedFile{Path: "send.go", Functions: []string{"sendReport"}},
	)

	require.NoError(t, store.View(context.Background(), func(tx graph.Tx) error {
		files, err := graph.FilesOfRepository(tx, repoID)
		require.NoError(t, err)
		assert.Len(t, files, 2)

		nodes, err := graph.StructuralNodesOfRepository(tx, repoID)
		require.NoError(t, err)
		assert.Len(t, nodes, 3)
		return nil
	}))

	node := NodeByName(t, store, repoID, "readInput")
	assert.Equal(t, graph.KindFunction, node.Kind)
}

func TestSeedInvestigationAndSummary(t *testing.T) {
	store := SetupStore(t)
	repoID := SeedRepository(t, store, "webapp",
		SeedFile{Path: "main.go", Functions: []string{"main"}},
	)
	invID := SeedInvestigation(t, store, repoID, "first pass")
	mainID := NodeByName(t, store, repoID, "main").ID
	SeedSummary(t, store, mainID, "Entry point.")

	require.NoError(t, store.View(context.Background(), func(tx graph.Tx) error {
		inv, err := graph.GetInvestigation(tx, invID)
		require.NoError(t, err)
		assert.Equal(t, "first pass", inv.Title)
		assert.Equal(t, repoID, inv.RepositoryID)

		s, err := graph.SummaryOf(tx, mainID)
		require.NoError(t, err)
		assert.Equal(t, "Entry point.", s.Text)
		return nil
	}))
}
