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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *EmbeddedStore {
	t.Helper()
	store, err := NewEmbeddedStore(EmbeddedConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNodeRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx Tx) error {
		return tx.PutNode(&Node{
			ID:     "n1",
			Labels: []string{LabelFile},
			Props:  map[string]any{"path": "main.go", "size": 42},
		})
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx Tx) error {
		n, err := tx.GetNode("n1")
		require.NoError(t, err)
		assert.True(t, n.HasLabel(LabelFile))
		assert.Equal(t, "main.go", propString(n.Props, "path"))
		assert.Equal(t, 42, propInt(n.Props, "size"))

		_, err = tx.GetNode("missing")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestPutNodeReplacesLabelsAndProps(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return tx.PutNode(&Node{ID: "n1", Labels: []string{LabelSource}, Props: map[string]any{"name": "a"}})
	}))
	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return tx.PutNode(&Node{ID: "n1", Labels: []string{LabelSink}, Props: map[string]any{"name": "b"}})
	}))

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		asSource, err := tx.NodesByLabel(LabelSource)
		require.NoError(t, err)
		assert.Empty(t, asSource, "old label index entry must be gone")

		asSink, err := tx.NodesByLabel(LabelSink)
		require.NoError(t, err)
		require.Len(t, asSink, 1)
		assert.Equal(t, "b", propString(asSink[0].Props, "name"))
		return nil
	}))
}

func TestRelationshipTraversal(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		for _, id := range []string{"repo", "f1", "f2"} {
			if err := tx.PutNode(&Node{ID: id, Labels: []string{LabelFile}}); err != nil {
				return err
			}
		}
		if err := tx.CreateRelationship(&Relationship{From: "repo", To: "f1", Type: RelHasFile}); err != nil {
			return err
		}
		return tx.CreateRelationship(&Relationship{From: "repo", To: "f2", Type: RelHasFile})
	}))

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		out, err := tx.Out("repo", RelHasFile)
		require.NoError(t, err)
		assert.Len(t, out, 2)

		in, err := tx.In("f1", RelHasFile)
		require.NoError(t, err)
		require.Len(t, in, 1)
		assert.Equal(t, "repo", in[0].ID)

		none, err := tx.Out("repo", RelDefines)
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	}))
}

func TestRelationshipRequiresEndpoints(t *testing.T) {
	store := newStore(t)

	err := store.Update(context.Background(), func(tx Tx) error {
		return tx.CreateRelationship(&Relationship{From: "ghost", To: "ghost2", Type: RelHasFile})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIsAtomic(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx Tx) error {
		if err := tx.PutNode(&Node{ID: "a", Labels: []string{LabelFile}}); err != nil {
			return err
		}
		return assert.AnError // discard everything
	})
	require.Error(t, err)

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		_, err := tx.GetNode("a")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestClosedStore(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()
	assert.ErrorIs(t, store.View(ctx, func(Tx) error { return nil }), ErrClosed)
	assert.ErrorIs(t, store.Update(ctx, func(Tx) error { return nil }), ErrClosed)
	assert.NoError(t, store.Close()) // idempotent
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewEmbeddedStore(EmbeddedConfig{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, func(tx Tx) error {
		return tx.PutNode(&Node{ID: "n1", Labels: []string{LabelRepository}, Props: map[string]any{"name": "x"}})
	}))
	require.NoError(t, store.Close())

	store, err = NewEmbeddedStore(EmbeddedConfig{DataDir: dir})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.View(ctx, func(tx Tx) error {
		n, err := tx.GetNode("n1")
		require.NoError(t, err)
		assert.Equal(t, "x", propString(n.Props, "name"))
		return nil
	}))
}

func TestContextCancellation(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.View(ctx, func(Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
