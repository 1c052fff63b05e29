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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/bootstrap"
	"github.com/kraklabs/ariadne/internal/errors"
	"github.com/kraklabs/ariadne/internal/ui"
	"github.com/kraklabs/ariadne/pkg/analysis"
)

// runAnalyze executes the 'analyze' command: run the staged
// sources-and-sinks engine for one investigation and render its report.
func runAnalyze(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	markdown := fs.Bool("markdown", false, "Render the full markdown report")
	minConfidence := fs.Float64("min-confidence", 0, "Confidence threshold for findings (default: from config)")
	maxPairs := fs.Int("max-pairs", 0, "Cross-file source/sink pair cap (default: from config)")
	workers := fs.Int("workers", 0, "Concurrent analyzer calls (default: from config)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne analyze <investigation-id> [options]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"an investigation id is required",
			"the analysis engine runs against exactly one investigation",
			"ariadne investigation list",
		), globals.JSON)
	}
	invID := fs.Arg(0)

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

	cfg := rt.Config.Analysis
	if *minConfidence > 0 {
		cfg.MinConfidence = *minConfidence
	}
	if *maxPairs > 0 {
		cfg.MaxPairs = *maxPairs
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	analyzer := analysis.NewLLMAnalyzer(rt.Provider, cfg.MinConfidence)
	engine := analysis.NewEngine(rt.Store, analyzer, rt.Provider, analysis.Options{
		Workers:  cfg.Workers,
		MaxPairs: cfg.MaxPairs,
	}, rt.Logger)

	progress := NewProgressConfig(globals)
	spinner := NewSpinner(progress, "Analyzing sources and sinks...")
	result, err := engine.Run(context.Background(), invID)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		if isNotFound(err) {
			errors.FatalError(errors.NewNotFoundError(
				fmt.Sprintf("investigation %q is not in the graph", invID),
				err.Error(),
				"run 'ariadne investigation list' to see valid ids",
			), globals.JSON)
		}
		errors.FatalError(errors.NewProviderError(
			"analysis run failed",
			err.Error(),
			"check the provider configuration in .ariadne/project.yaml",
			err,
		), globals.JSON)
	}

	switch {
	case globals.JSON:
		data, err := result.ToJSON()
		if err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode report", err.Error(), "", err), globals.JSON)
		}
		fmt.Println(string(data))
	case *markdown:
		fmt.Print(result.ToMarkdown())
	default:
		printAnalysisSummary(result)
	}
}

func printAnalysisSummary(result *analysis.Result) {
	ui.Successf("Analysis of %q complete", result.Investigation.Title)
	fmt.Printf("  %s %d\n", ui.Label("Sources:"), len(result.Sources))
	fmt.Printf("  %s %d\n", ui.Label("Sinks:"), len(result.Sinks))
	fmt.Printf("  %s %d\n", ui.Label("Paths:"), len(result.Paths))
	if result.Narrative != "" {
		fmt.Printf("\n%s\n", result.Narrative)
	}
	for _, p := range result.Paths {
		fmt.Printf("  %s %s (impact: %s, confidence: %.2f)\n",
			ui.Label("-"), p.VulnerabilityType, p.Impact, p.Confidence)
	}
	fmt.Printf("\nFull report: ariadne analyze %s --markdown\n", result.Investigation.ID)
}
