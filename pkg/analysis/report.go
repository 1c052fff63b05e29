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

package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// Result is the outcome of one engine run: the persisted findings plus a
// narrative summary.
type Result struct {
	Investigation *graph.Investigation    `json:"investigation"`
	Sources       []*graph.Finding        `json:"sources"`
	Sinks         []*graph.Finding        `json:"sinks"`
	Paths         []*graph.DataFlowPath   `json:"paths"`
	Narrative     string                  `json:"narrative"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

// summaryLine is the deterministic one-line executive summary used when no
// narrator is configured or the narration call fails.
func (r *Result) summaryLine() string {
	return fmt.Sprintf("Analysis of %q found %s, %s and %s.",
		r.Investigation.Title,
		plural(len(r.Sources), "data source"),
		plural(len(r.Sinks), "data sink"),
		plural(len(r.Paths), "potential vulnerability path"),
	)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// narrationPrompt renders the findings compactly for the summarizer.
func (r *Result) narrationPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Investigation: %s\n", r.Investigation.Title)
	fmt.Fprintf(&b, "Sources: %d\nSinks: %d\nPaths: %d\n", len(r.Sources), len(r.Sinks), len(r.Paths))
	for _, p := range r.Paths {
		fmt.Fprintf(&b, "- %s (impact %s, confidence %.2f): %s\n",
			p.VulnerabilityType, p.Impact, p.Confidence, p.Description)
	}
	return b.String()
}

// ToJSON renders the result as indented JSON.
func (r *Result) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToMarkdown renders a human-readable report: executive summary, per-category
// counts, then one section per data-flow path with its recommendations.
func (r *Result) ToMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis Report: %s\n\n", r.Investigation.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	b.WriteString(r.summaryLine())
	b.WriteString("\n")
	if r.Narrative != "" && r.Narrative != r.summaryLine() {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(r.Narrative))
		b.WriteString("\n")
	}

	writeFindingSection(&b, "Sources", r.Sources)
	writeFindingSection(&b, "Sinks", r.Sinks)

	if len(r.Paths) > 0 {
		b.WriteString("\n## Data Flow Paths\n")
		bySource := findingIndex(r.Sources)
		bySink := findingIndex(r.Sinks)
		for i, p := range r.Paths {
			fmt.Fprintf(&b, "\n### %d. %s (impact: %s, confidence: %.2f)\n\n",
				i+1, p.VulnerabilityType, p.Impact, p.Confidence)
			if src, ok := bySource[p.SourceID]; ok {
				fmt.Fprintf(&b, "- Source: %s (%s)\n", src.Name, src.Category)
			}
			if snk, ok := bySink[p.SinkID]; ok {
				fmt.Fprintf(&b, "- Sink: %s (%s)\n", snk.Name, snk.Category)
			}
			if p.Description != "" {
				fmt.Fprintf(&b, "\n%s\n", p.Description)
			}
			if len(p.Recommendations) > 0 {
				b.WriteString("\nRecommendations:\n")
				for _, rec := range p.Recommendations {
					fmt.Fprintf(&b, "- %s\n", rec)
				}
			}
		}
	}

	return b.String()
}

func writeFindingSection(b *strings.Builder, title string, fs []*graph.Finding) {
	fmt.Fprintf(b, "\n## %s (%d)\n", title, len(fs))
	if len(fs) == 0 {
		b.WriteString("\nNone found.\n")
		return
	}

	byCategory := make(map[string][]*graph.Finding)
	for _, f := range fs {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		fmt.Fprintf(b, "\n### %s\n\n", c)
		for _, f := range byCategory[c] {
			fmt.Fprintf(b, "- **%s** (confidence %.2f): %s\n", f.Name, f.Confidence, f.Description)
		}
	}
}

func findingIndex(fs []*graph.Finding) map[string]*graph.Finding {
	idx := make(map[string]*graph.Finding, len(fs))
	for _, f := range fs {
		idx[f.ID] = f
	}
	return idx
}
