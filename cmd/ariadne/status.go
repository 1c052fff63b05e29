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
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/bootstrap"
	"github.com/kraklabs/ariadne/internal/errors"
	"github.com/kraklabs/ariadne/internal/output"
	"github.com/kraklabs/ariadne/internal/ui"
	"github.com/kraklabs/ariadne/pkg/graph"
)

// RepositoryStatus summarizes one ingested repository for status output.
type RepositoryStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
	Files      int       `json:"files"`
	Nodes      int       `json:"nodes"`
}

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	Project        string                 `json:"project"`
	DataDir        string                 `json:"data_dir"`
	Repositories   []RepositoryStatus     `json:"repositories"`
	Investigations []*graph.Investigation `json:"investigations"`
	Timestamp      time.Time              `json:"timestamp"`
}

// runStatus executes the 'status' command, summarizing what has been
// ingested and which investigations exist. Ingestion run status itself is
// in-process state of the 'ingest' command, which follows its run to
// completion; this command reports the durable graph.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne status\n\nShows ingested repositories and investigations.\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	rt, err := bootstrap.Setup(bootstrap.Options{
		ConfigPath: globals.ConfigPath,
		Debug:      globals.Debug,
		Quiet:      globals.Quiet,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer rt.Close()

	dataDir, _ := resolveDataDir(rt.Config)
	result := StatusResult{
		Project:   rt.Config.Project,
		DataDir:   dataDir,
		Timestamp: time.Now(),
	}

	err = rt.Store.View(context.Background(), func(tx graph.Tx) error {
		repos, err := graph.Repositories(tx)
		if err != nil {
			return err
		}
		for _, repo := range repos {
			files, err := graph.FilesOfRepository(tx, repo.ID)
			if err != nil {
				return err
			}
			nodes, err := graph.StructuralNodesOfRepository(tx, repo.ID)
			if err != nil {
				return err
			}
			result.Repositories = append(result.Repositories, RepositoryStatus{
				ID:         repo.ID,
				Name:       repo.Name,
				Source:     repo.Source,
				IngestedAt: repo.IngestedAt,
				Files:      len(files),
				Nodes:      len(nodes),
			})
		}

		result.Investigations, err = graph.Investigations(tx)
		return err
	})
	if err != nil {
		errors.FatalError(errors.NewStoreError(
			"cannot read project status",
			err.Error(),
			"run 'ariadne ingest' first if the graph is empty",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode status", err.Error(), "", err), globals.JSON)
		}
		return
	}

	printStatus(result)
}

func printStatus(result StatusResult) {
	ui.Header("Project Status")
	fmt.Printf("%s %s\n", ui.Label("Project:"), result.Project)
	fmt.Printf("%s %s\n\n", ui.Label("Data dir:"), result.DataDir)

	if len(result.Repositories) == 0 {
		ui.Info("No repositories ingested yet. Run 'ariadne ingest <path>' first.")
	}
	for _, repo := range result.Repositories {
		fmt.Printf("%s %s\n", ui.Label("Repository:"), repo.Name)
		fmt.Printf("  %s %s\n", ui.Label("Source:"), repo.Source)
		fmt.Printf("  %s %d files, %d structural nodes\n", ui.Label("Graph:"), repo.Files, repo.Nodes)
		fmt.Printf("  %s %s\n", ui.Label("Ingested:"), repo.IngestedAt.Format(time.RFC3339))
		fmt.Printf("  %s\n", ui.DimText(repo.ID))
	}

	if len(result.Investigations) > 0 {
		fmt.Println()
		ui.Header("Investigations")
		for _, inv := range result.Investigations {
			fmt.Printf("%s %s (%s)\n", ui.Label(inv.Title), ui.DimText(inv.ID), inv.Status)
		}
	}
}
