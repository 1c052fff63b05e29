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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ariadne/pkg/graph"
)

func TestParsePropertyFilters(t *testing.T) {
	filters, err := parsePropertyFilters([]string{"name=main", "kind=function"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "main", "kind": "function"}, filters)
}

func TestParsePropertyFiltersEmpty(t *testing.T) {
	filters, err := parsePropertyFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)
}

func TestParsePropertyFiltersValueWithEquals(t *testing.T) {
	filters, err := parsePropertyFilters([]string{"signature=func(a=b)"})
	require.NoError(t, err)
	assert.Equal(t, "func(a=b)", filters["signature"])
}

func TestParsePropertyFiltersMalformed(t *testing.T) {
	for _, raw := range []string{"name", "=value", ""} {
		_, err := parsePropertyFilters([]string{raw})
		assert.Error(t, err, "filter %q should be rejected", raw)
	}
}

func TestMatchesFilters(t *testing.T) {
	node := &graph.Node{
		ID:     "node-1",
		Labels: []string{graph.LabelStructuralNode},
		Props: map[string]any{
			"name":       "main",
			"kind":       "function",
			"start_line": 10,
		},
	}

	assert.True(t, matchesFilters(node, nil))
	assert.True(t, matchesFilters(node, map[string]string{"name": "main"}))
	assert.True(t, matchesFilters(node, map[string]string{"name": "main", "kind": "function"}))
	assert.True(t, matchesFilters(node, map[string]string{"start_line": "10"}), "numeric props match their printed form")
	assert.False(t, matchesFilters(node, map[string]string{"name": "other"}))
	assert.False(t, matchesFilters(node, map[string]string{"missing": "x"}))
}
