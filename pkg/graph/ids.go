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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// Deterministic IDs keep re-ingestion of identical content idempotent:
// the same repository path always maps to the same File and StructuralNode
// IDs, so graph writes upsert instead of duplicating.

// RepositoryID derives the node ID for a repository from its name.
func RepositoryID(name string) string {
	return "repo:" + hashID(name)
}

// FileID derives the node ID for a file within a repository.
func FileID(repoID, path string) string {
	return "file:" + hashID(repoID+"|"+normalizePath(path))
}

// StructuralNodeID derives the node ID for a parsed code construct.
// The span is part of the identity so that two same-named constructs in
// one file (overload-like patterns, nested closures) stay distinct.
func StructuralNodeID(fileID, name string, startLine, endLine int) string {
	return "node:" + hashID(fmt.Sprintf("%s|%s|%d|%d", fileID, name, startLine, endLine))
}

// SummaryID derives the node ID for a structural node's summary. One ID
// per structural node, so a new summarization run overwrites the old
// summary instead of appending a second one.
func SummaryID(nodeID string) string {
	return "summary:" + hashID(nodeID)
}

func hashID(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// normalizePath makes path-derived IDs identical across platforms.
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	return filepath.ToSlash(filepath.Clean(path))
}
