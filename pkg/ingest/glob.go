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
	"path"
	"path/filepath"
	"strings"
)

// excluded reports whether a slash-separated relative path matches any of
// the exclude patterns.
func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(p, pattern) {
			return true
		}
	}
	return false
}

// matchGlob matches one path against one pattern. Segments support the
// usual *, ? and [...] metacharacters (path.Match semantics) and "**"
// matches any number of segments. Patterns not anchored with a leading
// "**" may match at any depth, so "node_modules" excludes the directory
// wherever it appears, and a matched prefix excludes everything beneath
// it.
func matchGlob(p, pattern string) bool {
	pattern = strings.Trim(filepath.ToSlash(pattern), "/")
	if pattern == "" {
		return false
	}
	segs := strings.Split(p, "/")
	pats := strings.Split(pattern, "/")

	if pats[0] == "**" {
		return matchSegments(segs, pats)
	}
	for i := range segs {
		if matchSegments(segs[i:], pats) {
			return true
		}
	}
	return false
}

func matchSegments(segs, pats []string) bool {
	if len(pats) == 0 {
		return len(segs) == 0
	}
	if pats[0] == "**" {
		if len(pats) == 1 {
			return true
		}
		for i := 0; i <= len(segs); i++ {
			if matchSegments(segs[i:], pats[1:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, err := path.Match(pats[0], segs[0]); err != nil || !ok {
		return false
	}
	if len(pats) == 1 {
		// Matching a prefix excludes the whole subtree.
		return true
	}
	return matchSegments(segs[1:], pats[1:])
}
