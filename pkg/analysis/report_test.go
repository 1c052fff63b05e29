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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ariadne/pkg/graph"
)

func testResult() *Result {
	source := &graph.Finding{
		ID: "src-1", InvestigationID: "inv-1", NodeID: "n1",
		Name: "ReadForm", Category: "User Input",
		Description: "Reads the login form", Confidence: 0.9,
	}
	sink := &graph.Finding{
		ID: "snk-1", InvestigationID: "inv-1", NodeID: "n2",
		Name: "RunQuery", Category: "SQL Execution",
		Description: "Builds a query by concatenation", Confidence: 0.8,
	}
	return &Result{
		Investigation: &graph.Investigation{ID: "inv-1", Title: "Security review"},
		Sources:       []*graph.Finding{source},
		Sinks:         []*graph.Finding{sink},
		Paths: []*graph.DataFlowPath{{
			ID: "path-1", InvestigationID: "inv-1",
			SourceID: "src-1", SinkID: "snk-1",
			VulnerabilityType: "SQL Injection",
			Impact:            graph.ImpactHigh,
			Confidence:        0.85,
			Description:       "Form input reaches the query unescaped.",
			Recommendations:   []string{"Use parameterized queries instead of string concatenation."},
		}},
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestResultSummaryLine(t *testing.T) {
	r := testResult()
	assert.Equal(t,
		`Analysis of "Security review" found 1 data source, 1 data sink and 1 potential vulnerability path.`,
		r.summaryLine())

	r.Paths = nil
	r.Sources = nil
	assert.Equal(t,
		`Analysis of "Security review" found 0 data sources, 1 data sink and 0 potential vulnerability paths.`,
		r.summaryLine())
}

func TestResultToMarkdown(t *testing.T) {
	md := testResult().ToMarkdown()

	assert.Contains(t, md, "# Analysis Report: Security review")
	assert.Contains(t, md, "1 potential vulnerability path")
	assert.Contains(t, md, "## Sources (1)")
	assert.Contains(t, md, "### User Input")
	assert.Contains(t, md, "**ReadForm** (confidence 0.90)")
	assert.Contains(t, md, "## Sinks (1)")
	assert.Contains(t, md, "### 1. SQL Injection (impact: high, confidence: 0.85)")
	assert.Contains(t, md, "- Source: ReadForm (User Input)")
	assert.Contains(t, md, "- Sink: RunQuery (SQL Execution)")
	assert.Contains(t, md, "Use parameterized queries")
}

func TestResultToMarkdownEmpty(t *testing.T) {
	r := &Result{Investigation: &graph.Investigation{ID: "inv-1", Title: "Quiet repo"}}
	md := r.ToMarkdown()

	assert.Contains(t, md, "0 potential vulnerability paths")
	assert.Contains(t, md, "None found.")
	assert.NotContains(t, md, "## Data Flow Paths")
}

func TestResultToJSON(t *testing.T) {
	raw, err := testResult().ToJSON()
	require.NoError(t, err)

	var decoded struct {
		Investigation struct {
			Title string `json:"title"`
		} `json:"investigation"`
		Sources []json.RawMessage `json:"sources"`
		Paths   []struct {
			VulnerabilityType string `json:"vulnerability_type"`
		} `json:"paths"`
		Narrative string `json:"narrative"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Security review", decoded.Investigation.Title)
	assert.Len(t, decoded.Sources, 1)
	require.Len(t, decoded.Paths, 1)
	assert.Equal(t, "SQL Injection", decoded.Paths[0].VulnerabilityType)
}
