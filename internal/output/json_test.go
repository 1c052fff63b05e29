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

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, map[string]any{"state": "completed", "files": 3})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "  \"state\": \"completed\"")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestJSONCompactTo(t *testing.T) {
	var buf bytes.Buffer
	err := JSONCompactTo(&buf, map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":\"abc\"}\n", buf.String())
}

func TestJSONToRejectsUnencodable(t *testing.T) {
	var buf bytes.Buffer
	err := JSONTo(&buf, make(chan int))
	assert.ErrorContains(t, err, "encode JSON")
}
