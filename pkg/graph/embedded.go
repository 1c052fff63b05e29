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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// Key layout inside badger. All segments are joined with a 0x00 byte so
// that IDs and labels may contain any printable character, including '/'.
//
//	n <id>                 -> {"labels": [...], "props": {...}}
//	l <label> <id>         -> (empty)  label index
//	e <from> <type> <to>   -> {"props": {...}}  outgoing edge
//	i <to> <type> <from>   -> (empty)  reverse edge index
const (
	kindNode  = 'n'
	kindLabel = 'l'
	kindEdge  = 'e'
	kindIn    = 'i'
)

var keySep = []byte{0x00}

func key(kind byte, parts ...string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(kind)
	for _, p := range parts {
		buf.Write(keySep)
		buf.WriteString(p)
	}
	return buf.Bytes()
}

// keyPrefix builds an iteration prefix that terminates the last segment,
// so that "n <id>" does not also match "n <id-longer>".
func keyPrefix(kind byte, parts ...string) []byte {
	return append(key(kind, parts...), keySep...)
}

// EmbeddedStore implements Store using an embedded BadgerDB instance.
// This is the default backend for standalone Ariadne.
type EmbeddedStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// EmbeddedConfig configures the embedded store.
type EmbeddedConfig struct {
	// DataDir is the directory where badger stores its data.
	// Defaults to ~/.ariadne/data/<project>.
	DataDir string

	// Project namespaces the default data directory.
	Project string

	// InMemory opens a non-persistent store. DataDir is ignored.
	// Used by tests and throwaway runs.
	InMemory bool
}

// NewEmbeddedStore opens (and if necessary creates) an embedded store.
func NewEmbeddedStore(config EmbeddedConfig) (*EmbeddedStore, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.DataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("get home dir: %w", err)
			}
			config.DataDir = filepath.Join(homeDir, ".ariadne", "data")
			if config.Project != "" {
				config.DataDir = filepath.Join(config.DataDir, config.Project)
			}
		}
		if err := os.MkdirAll(config.DataDir, 0750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		opts = badger.DefaultOptions(config.DataDir)
	}
	// Badger's own logger is noisy at Info; the pipeline logs its own events.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &EmbeddedStore{db: db}, nil
}

// View runs fn in a read-only transaction.
func (s *EmbeddedStore) View(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&embeddedTx{txn: txn})
	})
}

// Update runs fn in a read-write transaction.
func (s *EmbeddedStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&embeddedTx{txn: txn})
	})
}

// Close closes the underlying database.
func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// nodeRecord is the stored form of a node.
type nodeRecord struct {
	Labels []string       `json:"labels"`
	Props  map[string]any `json:"props,omitempty"`
}

// edgeRecord is the stored form of an edge.
type edgeRecord struct {
	Props map[string]any `json:"props,omitempty"`
}

type embeddedTx struct {
	txn *badger.Txn
}

func (t *embeddedTx) PutNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("graph: node ID is empty")
	}
	if len(n.Labels) == 0 {
		return fmt.Errorf("graph: node %q has no labels", n.ID)
	}

	// Drop stale label index entries when re-labeling an existing node.
	if old, err := t.GetNode(n.ID); err == nil {
		for _, label := range old.Labels {
			if !n.HasLabel(label) {
				if err := t.txn.Delete(key(kindLabel, label, n.ID)); err != nil {
					return fmt.Errorf("drop label index: %w", err)
				}
			}
		}
	} else if err != ErrNotFound {
		return err
	}

	data, err := json.Marshal(nodeRecord{Labels: n.Labels, Props: n.Props})
	if err != nil {
		return fmt.Errorf("encode node %q: %w", n.ID, err)
	}
	if err := t.txn.Set(key(kindNode, n.ID), data); err != nil {
		return fmt.Errorf("put node %q: %w", n.ID, err)
	}
	for _, label := range n.Labels {
		if err := t.txn.Set(key(kindLabel, label, n.ID), nil); err != nil {
			return fmt.Errorf("index node %q: %w", n.ID, err)
		}
	}
	return nil
}

func (t *embeddedTx) GetNode(id string) (*Node, error) {
	item, err := t.txn.Get(key(kindNode, id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get node %q: %w", id, err)
	}
	var rec nodeRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode node %q: %w", id, err)
	}
	return &Node{ID: id, Labels: rec.Labels, Props: rec.Props}, nil
}

func (t *embeddedTx) NodesByLabel(label string) ([]*Node, error) {
	prefix := keyPrefix(kindLabel, label)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var nodes []*Node
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		id := string(it.Item().Key()[len(prefix):])
		node, err := t.GetNode(id)
		if err == ErrNotFound {
			continue // index entry for a concurrently removed node
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (t *embeddedTx) CreateRelationship(rel *Relationship) error {
	if rel.From == "" || rel.To == "" || rel.Type == "" {
		return fmt.Errorf("graph: relationship requires from, to and type")
	}
	if _, err := t.GetNode(rel.From); err != nil {
		return fmt.Errorf("relationship %s from: %w", rel.Type, err)
	}
	if _, err := t.GetNode(rel.To); err != nil {
		return fmt.Errorf("relationship %s to: %w", rel.Type, err)
	}

	data, err := json.Marshal(edgeRecord{Props: rel.Props})
	if err != nil {
		return fmt.Errorf("encode relationship: %w", err)
	}
	if err := t.txn.Set(key(kindEdge, rel.From, rel.Type, rel.To), data); err != nil {
		return fmt.Errorf("put relationship: %w", err)
	}
	if err := t.txn.Set(key(kindIn, rel.To, rel.Type, rel.From), nil); err != nil {
		return fmt.Errorf("index relationship: %w", err)
	}
	return nil
}

func (t *embeddedTx) Out(id, relType string) ([]*Node, error) {
	return t.neighbors(kindEdge, id, relType)
}

func (t *embeddedTx) In(id, relType string) ([]*Node, error) {
	return t.neighbors(kindIn, id, relType)
}

func (t *embeddedTx) neighbors(kind byte, id, relType string) ([]*Node, error) {
	prefix := keyPrefix(kind, id, relType)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var nodes []*Node
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		other := string(it.Item().Key()[len(prefix):])
		node, err := t.GetNode(other)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
