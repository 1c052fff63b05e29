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
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/errors"
	"github.com/kraklabs/ariadne/pkg/config"
)

// runReset executes the 'reset' command, deleting the local graph data.
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ariadne reset --yes

Deletes the local graph data: every ingested repository, investigation
and finding for this project.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"you must pass --yes to confirm the reset",
			"this deletes all graph data for the project",
			"ariadne reset --yes",
		), globals.JSON)
	}

	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	dataDir, err := resolveDataDir(cfg)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot resolve data directory", err.Error(), "", err), globals.JSON)
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Printf("No local data found at %s\n", dataDir)
		return
	}

	fmt.Printf("Resetting project %s (deleting %s)...\n", cfg.Project, dataDir)
	if err := os.RemoveAll(dataDir); err != nil {
		errors.FatalError(errors.NewStoreError(
			"failed to delete graph data",
			err.Error(),
			"check directory permissions",
			err,
		), globals.JSON)
	}

	fmt.Println("Reset complete. All local graph data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  ariadne ingest <path>    Ingest a repository again")
}

// resolveDataDir mirrors the store's default location so reset deletes
// exactly what the store would open.
func resolveDataDir(cfg *config.Config) (string, error) {
	if cfg.Storage.DataDir != "" {
		return cfg.Storage.DataDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, ".ariadne", "data")
	if cfg.Project != "" {
		dir = filepath.Join(dir, cfg.Project)
	}
	return dir, nil
}
