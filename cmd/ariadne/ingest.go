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
	"github.com/kraklabs/ariadne/pkg/ingest"
)

// runIngest executes the 'ingest' command: scan a repository, parse its
// files into the graph and optionally summarize each code structure.
func runIngest(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	url := fs.String("url", "", "Git URL to shallow-clone and ingest")
	workers := fs.Int("workers", 0, "File worker count (default: from config)")
	summarize := fs.Bool("summarize", false, "Generate LLM summaries per code structure")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne ingest <path> | ariadne ingest --url <git-url>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	src := ingest.Source{URL: *url}
	if fs.NArg() > 0 {
		src.Path = fs.Arg(0)
	}
	if (src.Path == "") == (src.URL == "") {
		errors.FatalError(errors.NewInputError(
			"exactly one repository source is required",
			"pass a local directory, or --url for a git repository",
			"ariadne ingest . | ariadne ingest --url https://github.com/org/repo",
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

	startMetricsServer(*metricsAddr, rt.Logger)

	var summarizer *ingest.Summarizer
	doSummarize := *summarize || rt.Config.Ingestion.Summarize
	if doSummarize {
		summarizer = ingest.NewSummarizer(rt.Provider)
	}

	pipeline := ingest.NewPipeline(rt.Store, summarizer, rt.Logger)
	defer pipeline.Close()

	opts := ingest.Options{
		Workers:      rt.Config.Ingestion.Workers,
		ExcludeGlobs: rt.Config.Ingestion.ExcludeGlobs,
		MaxFileSize:  rt.Config.Ingestion.MaxFileSize,
		ParserMode:   ingest.ParserMode(rt.Config.Ingestion.Parser),
		Summarize:    doSummarize,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	id, err := pipeline.Start(context.Background(), src, opts)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"cannot start ingestion",
			err.Error(),
			"check that the path exists and is a directory",
		), globals.JSON)
	}

	status := followIngestion(pipeline, id, globals)

	if globals.JSON {
		if err := output.JSON(status); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode status", err.Error(), "", err), globals.JSON)
		}
	} else {
		printIngestStatus(status)
	}

	if status.State == ingest.StateFailed {
		os.Exit(errors.ExitInput)
	}
}

// followIngestion polls the run until it reaches a terminal state,
// driving a spinner when progress display is enabled.
func followIngestion(pipeline *ingest.Pipeline, id string, globals GlobalFlags) ingest.Status {
	progress := NewProgressConfig(globals)
	spinner := NewSpinner(progress, "Ingesting repository...")

	for {
		status, err := pipeline.Status(id)
		if err != nil {
			// The run was started by this process; a lookup failure
			// means the registry evicted it mid-flight, which only
			// happens after it went terminal.
			pipeline.Wait()
			status, err = pipeline.Status(id)
			if err != nil {
				errors.FatalError(errors.NewInternalError(
					"lost track of ingestion run", err.Error(), "", err,
				), globals.JSON)
			}
			return status
		}
		if status.State.Terminal() {
			if spinner != nil {
				_ = spinner.Finish()
			}
			return status
		}
		if spinner != nil {
			spinner.Describe(fmt.Sprintf("Ingesting: %d scanned, %d parsed", status.FilesScanned, status.FilesParsed))
			_ = spinner.Add(1)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printIngestStatus(status ingest.Status) {
	switch status.State {
	case ingest.StateCompleted:
		ui.Successf("Ingestion %s completed in %s", status.ID, status.TimeElapsed.Round(time.Millisecond))
	case ingest.StateCancelled:
		ui.Warningf("Ingestion %s cancelled", status.ID)
	case ingest.StateFailed:
		ui.Errorf("Ingestion %s failed: %s", status.ID, status.Error)
	}

	fmt.Printf("  %s %s\n", ui.Label("Source:"), status.Source)
	if status.RepositoryID != "" {
		fmt.Printf("  %s %s\n", ui.Label("Repository:"), status.RepositoryID)
	}
	fmt.Printf("  %s %d scanned, %d parsed, %d failed\n",
		ui.Label("Files:"), status.FilesScanned, status.FilesParsed, status.FilesFailed)
	fmt.Printf("  %s %d\n", ui.Label("Nodes:"), status.NodesCreated)
	if status.Summaries > 0 {
		fmt.Printf("  %s %d\n", ui.Label("Summaries:"), status.Summaries)
	}
	for _, fe := range status.Errors {
		fmt.Printf("  %s %s (%s): %s\n", ui.DimText("skipped"), fe.Path, fe.Stage, fe.Message)
	}
}
