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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"literal dir at root", "vendor/lib.go", "vendor", true},
		{"literal dir nested", "a/b/node_modules/x/y.js", "node_modules", true},
		{"literal dir no match", "src/main.go", "vendor", false},
		{"extension", "src/app.min.js", "*.min.js", true},
		{"extension no match", "src/app.js", "*.min.js", false},
		{"double star suffix", "apps/catalog/bin/tool", "bin/**", true},
		{"double star prefix", "deep/nested/test_util.go", "**/test_util.go", true},
		{"question mark", "logs/a.log", "?.log", true},
		{"char class", "build1/out", "build[0-9]", true},
		{"char class no match", "builds/out", "build[0-9]", false},
		{"segment star", "src/gen_types.go", "gen_*.go", true},
		{"star not across separator", "a/b.go", "a*b.go", false},
		{"prefix excludes subtree", "dist/js/app.js", "dist", true},
		{"anchored double star", "x/y/z.tmp", "**/*.tmp", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchGlob(tt.path, tt.pattern),
				"path=%q pattern=%q", tt.path, tt.pattern)
		})
	}
}

func TestExcluded(t *testing.T) {
	patterns := []string{"vendor", "*.min.js", "**/testdata"}
	assert.True(t, excluded("vendor/x.go", patterns))
	assert.True(t, excluded("web/app.min.js", patterns))
	assert.True(t, excluded("pkg/parser/testdata/sample.go", patterns))
	assert.False(t, excluded("pkg/parser/parser.go", patterns))
	assert.False(t, excluded("x.go", nil))
}
