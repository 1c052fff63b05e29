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
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/bootstrap"
	"github.com/kraklabs/ariadne/internal/errors"
	"github.com/kraklabs/ariadne/internal/output"
	"github.com/kraklabs/ariadne/internal/ui"
	"github.com/kraklabs/ariadne/pkg/graph"
)

// runInvestigation executes the 'investigation' command group:
// 'investigation new' creates one, 'investigation list' enumerates them.
func runInvestigation(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: ariadne investigation new|list\n")
		os.Exit(1)
	}

	switch args[0] {
	case "new":
		runInvestigationNew(args[1:], globals)
	case "list":
		runInvestigationList(args[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown investigation subcommand: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Usage: ariadne investigation new|list\n")
		os.Exit(1)
	}
}

func runInvestigationNew(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("investigation new", flag.ExitOnError)
	repoName := fs.String("repo", "", "Repository name (as ingested)")
	title := fs.String("title", "", "Investigation title")
	description := fs.String("description", "", "Optional investigation description")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne investigation new --repo <name> --title <title> [--description <text>]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *repoName == "" || *title == "" {
		errors.FatalError(errors.NewInputError(
			"--repo and --title are required",
			"an investigation scopes one analysis session over one ingested repository",
			"ariadne investigation new --repo webapp --title \"untrusted input\"",
		), globals.JSON)
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

	now := time.Now().UTC()
	inv := &graph.Investigation{
		ID:           uuid.NewString(),
		RepositoryID: graph.RepositoryID(*repoName),
		Title:        *title,
		Description:  *description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = rt.Store.Update(context.Background(), func(tx graph.Tx) error {
		if _, err := graph.GetRepository(tx, inv.RepositoryID); err != nil {
			return err
		}
		return graph.PutInvestigation(tx, inv)
	})
	if err != nil {
		if isNotFound(err) {
			errors.FatalError(errors.NewNotFoundError(
				fmt.Sprintf("repository %q is not in the graph", *repoName),
				"investigations can only target ingested repositories",
				"run 'ariadne status' to list repositories, or 'ariadne ingest' first",
			), globals.JSON)
		}
		errors.FatalError(errors.NewStoreError("cannot create investigation", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(inv); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode investigation", err.Error(), "", err), globals.JSON)
		}
		return
	}
	ui.Successf("Created investigation %s", inv.ID)
	fmt.Printf("  %s %s\n", ui.Label("Title:"), inv.Title)
	fmt.Printf("Next: ariadne analyze %s\n", inv.ID)
}

func runInvestigationList(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("investigation list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne investigation list\n")
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

	var invs []*graph.Investigation
	err = rt.Store.View(context.Background(), func(tx graph.Tx) error {
		invs, err = graph.Investigations(tx)
		return err
	})
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot list investigations", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(invs); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode investigations", err.Error(), "", err), globals.JSON)
		}
		return
	}

	if len(invs) == 0 {
		ui.Info("No investigations. Create one with 'ariadne investigation new'.")
		return
	}
	for _, inv := range invs {
		fmt.Printf("%s  %s  %s\n", inv.ID, inv.Status, inv.Title)
	}
}

func isNotFound(err error) bool {
	return stderrors.Is(err, graph.ErrNotFound)
}
