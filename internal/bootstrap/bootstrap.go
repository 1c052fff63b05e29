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

// Package bootstrap wires the CLI runtime: project configuration, the
// structured logger, the embedded graph store and the LLM provider. Every
// command goes through Setup so they all see the same stack.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/ariadne/pkg/config"
	"github.com/kraklabs/ariadne/pkg/graph"
	"github.com/kraklabs/ariadne/pkg/llm"
)

// Options selects what Setup builds.
type Options struct {
	// ConfigPath overrides the default .ariadne/project.yaml location.
	ConfigPath string

	// Debug lowers the log level to Debug.
	Debug bool

	// Quiet raises the log level to Warn. Debug wins when both are set.
	Quiet bool

	// InMemory forces a non-persistent store irrespective of config.
	InMemory bool
}

// Runtime is the assembled stack handed to commands.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    graph.Store
	Provider llm.Provider
}

// Setup loads configuration and opens the store and provider. The caller
// must Close the runtime when done.
func Setup(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(opts.Debug, opts.Quiet)
	slog.SetDefault(logger)

	store, err := graph.NewEmbeddedStore(graph.EmbeddedConfig{
		DataDir:  cfg.Storage.DataDir,
		Project:  cfg.Project,
		InMemory: cfg.Storage.InMemory || opts.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("bootstrap.setup",
		"project", cfg.Project,
		"provider", provider.Name(),
		"in_memory", cfg.Storage.InMemory || opts.InMemory,
	)

	return &Runtime{Config: cfg, Logger: logger, Store: store, Provider: provider}, nil
}

// Close releases the runtime's store.
func (r *Runtime) Close() error {
	return r.Store.Close()
}

// NewLogger builds the CLI's text logger on stderr.
func NewLogger(debug, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newProvider builds the configured provider, falling back to environment
// detection when the config names none explicitly.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	if cfg.LLM.Type == "" {
		return llm.DefaultProvider()
	}
	return llm.NewProvider(cfg.LLM)
}
