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

// Package config loads the project configuration from
// .ariadne/project.yaml. Values resolve flag > environment > file >
// default; this package owns the file and default layers, the CLI applies
// flags on top and the LLM providers read their own environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ariadne/pkg/llm"
)

// Config is the full project configuration.
type Config struct {
	// Project names the project; it namespaces the default data
	// directory. Defaults to the working directory's base name.
	Project string `yaml:"project,omitempty"`

	Storage   Storage    `yaml:"storage,omitempty"`
	LLM       llm.Config `yaml:"llm,omitempty"`
	Ingestion Ingestion  `yaml:"ingestion,omitempty"`
	Analysis  Analysis   `yaml:"analysis,omitempty"`
}

// Storage configures the embedded graph store.
type Storage struct {
	// DataDir overrides the default ~/.ariadne/data/<project> location.
	DataDir string `yaml:"data_dir,omitempty"`

	// InMemory opens a throwaway non-persistent store.
	InMemory bool `yaml:"in_memory,omitempty"`
}

// Ingestion configures the ingestion pipeline.
type Ingestion struct {
	Workers      int      `yaml:"workers,omitempty"`
	ExcludeGlobs []string `yaml:"exclude_globs,omitempty"`
	MaxFileSize  int64    `yaml:"max_file_size,omitempty"`

	// Parser selects the parse mode: auto, treesitter or simplified.
	Parser string `yaml:"parser,omitempty"`

	// Summarize enables per-node LLM summaries during ingestion.
	Summarize bool `yaml:"summarize,omitempty"`
}

// Analysis configures the sources-and-sinks engine.
type Analysis struct {
	Workers       int     `yaml:"workers,omitempty"`
	MaxPairs      int     `yaml:"max_pairs,omitempty"`
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	// LLM.Type is left empty: the bootstrap then auto-detects a provider
	// from the environment (ollama, openai, anthropic, mock fallback).
	return &Config{
		Ingestion: Ingestion{
			Workers:     4,
			MaxFileSize: 1 << 20,
			Parser:      "auto",
			ExcludeGlobs: []string{
				".git/**", "vendor/**", "node_modules/**",
				"**/*.min.js", "dist/**", "build/**",
			},
		},
		Analysis: Analysis{
			Workers:       4,
			MaxPairs:      25,
			MinConfidence: 0.5,
		},
	}
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, ".ariadne", "project.yaml")
}

// Load reads the config at path, overlaying the defaults. A missing file
// is not an error: the defaults are returned unchanged. path == ""
// resolves to Path(".").
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path(".")
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks cross-field constraints the YAML schema cannot express.
func (c *Config) Validate() error {
	switch c.Ingestion.Parser {
	case "", "auto", "treesitter", "simplified":
	default:
		return fmt.Errorf("unknown parser mode %q (auto, treesitter, simplified)", c.Ingestion.Parser)
	}
	if c.Ingestion.Workers < 0 {
		return fmt.Errorf("ingestion.workers must not be negative")
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative")
	}
	if c.Analysis.MinConfidence < 0 || c.Analysis.MinConfidence > 1 {
		return fmt.Errorf("analysis.min_confidence %v outside [0,1]", c.Analysis.MinConfidence)
	}
	return nil
}
