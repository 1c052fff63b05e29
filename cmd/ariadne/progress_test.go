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
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name        string
		globals     GlobalFlags
		wantEnabled bool
		wantNoColor bool
	}{
		{
			name:        "default flags disabled outside a TTY",
			globals:     GlobalFlags{},
			wantEnabled: false, // stderr is not a TTY under go test
		},
		{
			name:        "quiet disables progress",
			globals:     GlobalFlags{Quiet: true},
			wantEnabled: false,
		},
		{
			name:        "no-color propagates",
			globals:     GlobalFlags{NoColor: true},
			wantEnabled: false,
			wantNoColor: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals)
			assert.Equal(t, tt.wantEnabled, cfg.Enabled)
			assert.Equal(t, tt.wantNoColor, cfg.NoColor)
			assert.Equal(t, os.Stderr, cfg.Writer)
		})
	}
}

func TestNewProgressBarDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, NewProgressBar(ProgressConfig{Enabled: false}, 100, "test"))
	assert.Nil(t, NewSpinner(ProgressConfig{Enabled: false}, "test"))
}

func TestNewProgressBarWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}

	bar := NewProgressBar(cfg, 10, "ingesting")
	require.NotNil(t, bar)
	require.NoError(t, bar.Add(5))
	assert.Contains(t, buf.String(), "ingesting")
}

func TestNewSpinnerEnabled(t *testing.T) {
	var buf bytes.Buffer
	cfg := ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}
	assert.NotNil(t, NewSpinner(cfg, "analyzing"))
}
