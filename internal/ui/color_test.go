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

package ui

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withNoColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })
}

func TestInitColorsDisables(t *testing.T) {
	original := color.NoColor
	t.Cleanup(func() { color.NoColor = original })

	color.NoColor = false
	InitColors(true)
	assert.True(t, color.NoColor)

	// InitColors(false) must not re-enable colors that NO_COLOR or
	// TTY detection already disabled.
	InitColors(false)
	assert.True(t, color.NoColor)
}

func TestLabelAndDimTextWithoutColor(t *testing.T) {
	withNoColor(t)

	assert.Equal(t, "Repository:", Label("Repository:"))
	assert.Equal(t, "/tmp/data", DimText("/tmp/data"))
}
