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

// Package main implements the ariadne CLI for ingesting repositories into
// the code property graph and running sources-and-sinks analyses over it.
//
// Usage:
//
//	ariadne ingest <path>              Ingest a local repository
//	ariadne status [<id>] [--watch]    Show ingestion status
//	ariadne investigation new|list     Manage investigations
//	ariadne analyze <investigation>    Run the analysis engine
//	ariadne query --label <label>      Query graph nodes
//	ariadne reset --yes                Delete local project data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are recognized before the command word and shared by every
// command.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	NoColor    bool
	Debug      bool
}

func globalFlagSet(globals *GlobalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("ariadne", flag.ContinueOnError)
	fs.StringVar(&globals.ConfigPath, "config", "", "Path to .ariadne/project.yaml (default: ./.ariadne/project.yaml)")
	fs.BoolVar(&globals.JSON, "json", false, "Output machine-readable JSON")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress and informational output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&globals.Debug, "debug", false, "Enable debug logging")
	return fs
}

func usage(w *os.File) {
	fmt.Fprintf(w, `Ariadne - sources-and-sinks analysis over a code property graph

Ariadne ingests a repository into an embedded property graph and runs a
staged, LLM-assisted analysis that surfaces data sources, data sinks and
the flow paths between them.

Usage:
  ariadne <command> [options]

Commands:
  ingest         Ingest a local directory or git URL into the graph
  status         Show ingestion run status
  investigation  Create or list investigations
  analyze        Run the analysis engine for an investigation
  query          Query graph nodes by label and property
  reset          Delete local project data (destructive!)
  version        Show version and exit

Global Options:
  --config       Path to .ariadne/project.yaml
  --json         Output machine-readable JSON
  -q, --quiet    Suppress progress and informational output
  --no-color     Disable colored output
  --debug        Enable debug logging

Examples:
  ariadne ingest .                         Ingest the current directory
  ariadne ingest --url https://github.com/org/repo
  ariadne status                           List all ingestion runs
  ariadne status 4f1c... --watch           Follow one run to completion
  ariadne investigation new --repo webapp --title "untrusted input"
  ariadne analyze 7c2a... --markdown       Run analysis, print markdown report
  ariadne query --label StructuralNode --property name=main
  ariadne reset --yes                      Delete the local graph data

Data Storage:
  Graph data is stored locally under the configured data_dir
  (default: .ariadne/data/).

Environment Variables:
  OLLAMA_HOST        Ollama URL (default: http://localhost:11434)
  OPENAI_API_KEY     Use OpenAI when no provider is configured
  ANTHROPIC_API_KEY  Use Anthropic when no provider is configured

For detailed command help: ariadne <command> --help

`)
}

func main() {
	var globals GlobalFlags
	fs := globalFlagSet(&globals)
	fs.Usage = func() { usage(os.Stderr) }

	// Stop at the first non-flag argument so per-command flags are left
	// for the command's own flag set.
	fs.SetInterspersed(false)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ui.InitColors(globals.NoColor)

	// --json implies --quiet: progress and banners would corrupt the
	// machine-readable stream.
	if globals.JSON {
		globals.Quiet = true
	}

	args := fs.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "ingest":
		runIngest(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "investigation":
		runInvestigation(cmdArgs, globals)
	case "analyze":
		runAnalyze(cmdArgs, globals)
	case "query":
		runQuery(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	case "version":
		fmt.Printf("ariadne version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	case "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage(os.Stderr)
		os.Exit(1)
	}
}
