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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedFileTree writes repo -> file -> Handler(class) -> Handler.Serve(method)
// and returns the IDs involved.
func seedFileTree(t *testing.T, store Store) (repoID, fileID, classID, methodID string) {
	t.Helper()

	repo := &Repository{Name: "api", Source: "/src/api", IngestedAt: time.Now()}
	file := &File{Path: "handler.go", Language: "go", Size: 512}
	class := &StructuralNode{Name: "Handler", Kind: KindClass, StartLine: 10, EndLine: 40}
	method := &StructuralNode{Name: "Handler.Serve", Kind: KindMethod, StartLine: 15, EndLine: 30}

	err := store.Update(context.Background(), func(tx Tx) error {
		if err := PutRepository(tx, repo); err != nil {
			return err
		}
		file.RepositoryID = repo.ID
		if err := PutFile(tx, file); err != nil {
			return err
		}
		class.RepositoryID = repo.ID
		class.FileID = file.ID
		if err := PutStructuralNode(tx, class); err != nil {
			return err
		}
		method.RepositoryID = repo.ID
		method.FileID = file.ID
		method.ParentID = class.ID
		return PutStructuralNode(tx, method)
	})
	require.NoError(t, err)
	return repo.ID, file.ID, class.ID, method.ID
}

func TestRepositoryAndFileRoundTrip(t *testing.T) {
	store := newStore(t)
	repoID, fileID, _, _ := seedFileTree(t, store)

	require.NoError(t, store.View(context.Background(), func(tx Tx) error {
		repo, err := GetRepository(tx, repoID)
		require.NoError(t, err)
		assert.Equal(t, "api", repo.Name)
		assert.Equal(t, "/src/api", repo.Source)

		files, err := FilesOfRepository(tx, repoID)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, fileID, files[0].ID)
		assert.Equal(t, "handler.go", files[0].Path)
		assert.Equal(t, int64(512), files[0].Size)
		return nil
	}))
}

func TestDeterministicIDs(t *testing.T) {
	assert.Equal(t, RepositoryID("api"), RepositoryID("api"))
	assert.NotEqual(t, RepositoryID("api"), RepositoryID("web"))

	repoID := RepositoryID("api")
	assert.Equal(t, FileID(repoID, "a/b.go"), FileID(repoID, "a/b.go"))
	// Path normalization: "./" prefixes and redundant separators hash
	// identically.
	assert.Equal(t, FileID(repoID, "a/b.go"), FileID(repoID, "./a//b.go"))

	fileID := FileID(repoID, "a/b.go")
	assert.NotEqual(t,
		StructuralNodeID(fileID, "Run", 1, 10),
		StructuralNodeID(fileID, "Run", 1, 12))
}

func TestStructuralNodeContainment(t *testing.T) {
	store := newStore(t)
	_, fileID, classID, methodID := seedFileTree(t, store)

	require.NoError(t, store.View(context.Background(), func(tx Tx) error {
		// DEFINES goes downward, PART_OF upward.
		children, err := tx.Out(classID, RelDefines)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, methodID, children[0].ID)

		fromFile, err := tx.Out(fileID, RelDefines)
		require.NoError(t, err)
		require.Len(t, fromFile, 1)
		assert.Equal(t, classID, fromFile[0].ID)

		// ContainerFile walks PART_OF from any depth.
		file, err := ContainerFile(tx, methodID)
		require.NoError(t, err)
		assert.Equal(t, "handler.go", file.Path)
		return nil
	}))
}

func TestStructuralNodeValidation(t *testing.T) {
	store := newStore(t)
	_, fileID, _, _ := seedFileTree(t, store)

	err := store.Update(context.Background(), func(tx Tx) error {
		return PutStructuralNode(tx, &StructuralNode{FileID: fileID, Name: "X", Kind: "banana"})
	})
	assert.ErrorContains(t, err, "invalid structural node kind")

	err = store.Update(context.Background(), func(tx Tx) error {
		return PutStructuralNode(tx, &StructuralNode{Name: "X", Kind: KindFunction})
	})
	assert.ErrorContains(t, err, "requires file ID")
}

func TestSummaryUpsert(t *testing.T) {
	store := newStore(t)
	_, _, _, methodID := seedFileTree(t, store)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return PutSummary(tx, &Summary{NodeID: methodID, Text: "first", Model: "m1", CreatedAt: time.Now()})
	}))
	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return PutSummary(tx, &Summary{NodeID: methodID, Text: "second", Model: "m2", CreatedAt: time.Now()})
	}))

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		s, err := SummaryOf(tx, methodID)
		require.NoError(t, err)
		assert.Equal(t, "second", s.Text)
		assert.Equal(t, "m2", s.Model)

		// Re-summarization overwrote rather than accumulating.
		all, err := tx.NodesByLabel(LabelSummary)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))
}

func TestSummaryOfMissing(t *testing.T) {
	store := newStore(t)
	_, _, classID, _ := seedFileTree(t, store)

	err := store.View(context.Background(), func(tx Tx) error {
		_, err := SummaryOf(tx, classID)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedTestInvestigation(t *testing.T, store Store, repoID, id string) {
	t.Helper()
	err := store.Update(context.Background(), func(tx Tx) error {
		return PutInvestigation(tx, &Investigation{
			ID:           id,
			RepositoryID: repoID,
			Title:        "review",
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		})
	})
	require.NoError(t, err)
}

func TestFindingsAndDataFlowPaths(t *testing.T) {
	store := newStore(t)
	repoID, _, classID, methodID := seedFileTree(t, store)
	seedTestInvestigation(t, store, repoID, "inv-1")
	ctx := context.Background()

	source := &Finding{ID: "src-1", InvestigationID: "inv-1", NodeID: methodID, Name: "Serve", Category: "HTTP Request", Confidence: 0.9}
	sink := &Finding{ID: "snk-1", InvestigationID: "inv-1", NodeID: classID, Name: "Handler", Category: "HTTP Response", Confidence: 0.8}

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		if err := PutSource(tx, source); err != nil {
			return err
		}
		if err := PutSink(tx, sink); err != nil {
			return err
		}
		return PutDataFlowPath(tx, &DataFlowPath{
			ID:                "path-1",
			InvestigationID:   "inv-1",
			SourceID:          "src-1",
			SinkID:            "snk-1",
			VulnerabilityType: "XSS",
			Impact:            ImpactHigh,
			Confidence:        0.75,
			Recommendations:   []string{"escape output"},
		})
	}))

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		sources, err := SourcesOfInvestigation(tx, "inv-1")
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "Serve", sources[0].Name)

		sinks, err := SinksOfInvestigation(tx, "inv-1")
		require.NoError(t, err)
		assert.Len(t, sinks, 1)

		paths, err := DataFlowPathsOfInvestigation(tx, "inv-1")
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, "XSS", paths[0].VulnerabilityType)
		assert.Equal(t, ImpactHigh, paths[0].Impact)
		assert.Equal(t, []string{"escape output"}, paths[0].Recommendations)

		// FOUND_IN points at the structural node.
		found, err := tx.Out("src-1", RelFoundIn)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, methodID, found[0].ID)
		return nil
	}))
}

func TestFindingValidation(t *testing.T) {
	store := newStore(t)
	repoID, _, classID, _ := seedFileTree(t, store)
	seedTestInvestigation(t, store, repoID, "inv-1")

	err := store.Update(context.Background(), func(tx Tx) error {
		return PutSource(tx, &Finding{ID: "s", InvestigationID: "inv-1", NodeID: classID, Confidence: 1.5})
	})
	assert.ErrorContains(t, err, "outside [0,1]")
}

func TestDataFlowPathRejectsCrossInvestigation(t *testing.T) {
	store := newStore(t)
	repoID, _, classID, methodID := seedFileTree(t, store)
	seedTestInvestigation(t, store, repoID, "inv-1")
	seedTestInvestigation(t, store, repoID, "inv-2")
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		if err := PutSource(tx, &Finding{ID: "src-1", InvestigationID: "inv-1", NodeID: methodID, Confidence: 0.9}); err != nil {
			return err
		}
		return PutSink(tx, &Finding{ID: "snk-2", InvestigationID: "inv-2", NodeID: classID, Confidence: 0.9})
	}))

	err := store.Update(ctx, func(tx Tx) error {
		return PutDataFlowPath(tx, &DataFlowPath{
			ID:              "path-x",
			InvestigationID: "inv-1",
			SourceID:        "src-1",
			SinkID:          "snk-2",
			Impact:          ImpactLow,
			Confidence:      0.5,
		})
	})
	assert.ErrorContains(t, err, "different investigation")
}

func TestInvestigationLifecycle(t *testing.T) {
	store := newStore(t)
	repoID, _, _, _ := seedFileTree(t, store)
	ctx := context.Background()

	created := time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return PutInvestigation(tx, &Investigation{
			ID:           "inv-1",
			RepositoryID: repoID,
			Title:        "first pass",
			Description:  "look at auth",
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}))

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		inv, err := GetInvestigation(tx, "inv-1")
		require.NoError(t, err)
		assert.Equal(t, InvestigationInProgress, inv.Status, "defaulted on write")
		assert.WithinDuration(t, created, inv.CreatedAt, time.Second)

		all, err := Investigations(tx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))
}
