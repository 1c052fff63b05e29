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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.LLM.Type, "empty type means auto-detect")
	assert.Equal(t, 4, cfg.Ingestion.Workers)
	assert.Equal(t, 0.5, cfg.Analysis.MinConfidence)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project: webapp
llm:
  type: anthropic
  model: claude-sonnet-4-5
ingestion:
  workers: 8
  summarize: true
analysis:
  min_confidence: 0.7
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "webapp", cfg.Project)
	assert.Equal(t, "anthropic", cfg.LLM.Type)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Ingestion.Workers)
	assert.True(t, cfg.Ingestion.Summarize)
	assert.Equal(t, 0.7, cfg.Analysis.MinConfidence)

	// Unset fields keep their defaults.
	assert.Equal(t, "auto", cfg.Ingestion.Parser)
	assert.Equal(t, 25, cfg.Analysis.MaxPairs)
	assert.Contains(t, cfg.Ingestion.ExcludeGlobs, "vendor/**")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "ingestion: [", "parse config"},
		{"bad parser", "ingestion:\n  parser: psychic\n", "unknown parser mode"},
		{"bad confidence", "analysis:\n  min_confidence: 1.5\n", "outside [0,1]"},
		{"negative workers", "ingestion:\n  workers: -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0600))
			_, err := Load(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := Path(t.TempDir())

	cfg := Default()
	cfg.Project = "svc"
	cfg.Storage.DataDir = "/var/lib/ariadne"
	cfg.Ingestion.Summarize = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".ariadne", "project.yaml"), Path("/repo"))
}
