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
	"errors"
	"strings"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// Candidate is a structural node nominated by a funnel for analysis.
type Candidate struct {
	Node     *graph.StructuralNode
	FilePath string
	Summary  string // current summary text, empty if none
	Category string
	Funnel   string
}

// Funnel cheaply narrows a repository's structural nodes down to
// candidates worth an LLM call. Funnels run inside a read transaction.
type Funnel interface {
	Name() string
	QuerySources(tx graph.Tx, repoID string) ([]Candidate, error)
	QuerySinks(tx graph.Tx, repoID string) ([]Candidate, error)
}

// keywordRule maps a name fragment to a finding category. Rules are
// ordered; the first match decides the category.
type keywordRule struct {
	fragment string
	category string
}

var sourceNameRules = []keywordRule{
	{"input", "User Input"},
	{"form", "User Input"},
	{"scan", "User Input"},
	{"prompt", "User Input"},
	{"request", "HTTP Request"},
	{"header", "HTTP Request"},
	{"cookie", "HTTP Request"},
	{"param", "HTTP Request"},
	{"env", "Environment"},
	{"getenv", "Environment"},
	{"read", "File Read"},
	{"load", "File Read"},
	{"recv", "Network Receive"},
	{"receive", "Network Receive"},
	{"listen", "Network Receive"},
	{"query", "Database Read"},
	{"select", "Database Read"},
	{"fetch", "Database Read"},
}

var sinkNameRules = []keywordRule{
	{"exec", "Command Execution"},
	{"command", "Command Execution"},
	{"spawn", "Command Execution"},
	{"sql", "SQL Execution"},
	{"insert", "SQL Execution"},
	{"update", "SQL Execution"},
	{"delete", "SQL Execution"},
	{"write", "File Write"},
	{"save", "File Write"},
	{"store", "File Write"},
	{"response", "HTTP Response"},
	{"render", "HTTP Response"},
	{"redirect", "HTTP Response"},
	{"send", "API Request"},
	{"post", "API Request"},
	{"upload", "API Request"},
	{"call", "API Request"},
	{"log", "Logging"},
	{"print", "Logging"},
}

// KeywordFunnel nominates nodes whose names suggest data entry or exit.
// It is deliberately over-inclusive; the analyze stage does the pruning.
type KeywordFunnel struct{}

func (KeywordFunnel) Name() string { return "keyword" }

func (KeywordFunnel) QuerySources(tx graph.Tx, repoID string) ([]Candidate, error) {
	return matchByName(tx, repoID, "keyword", sourceNameRules)
}

func (KeywordFunnel) QuerySinks(tx graph.Tx, repoID string) ([]Candidate, error) {
	return matchByName(tx, repoID, "keyword", sinkNameRules)
}

func matchByName(tx graph.Tx, repoID, funnel string, rules []keywordRule) ([]Candidate, error) {
	nodes, err := graph.StructuralNodesOfRepository(tx, repoID)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, node := range nodes {
		name := strings.ToLower(node.Name)
		for _, rule := range rules {
			if !strings.Contains(name, rule.fragment) {
				continue
			}
			c, err := buildCandidate(tx, node, funnel, rule.category)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			break
		}
	}
	return out, nil
}

var sourceSummaryRules = []keywordRule{
	{"user input", "User Input"},
	{"http request", "HTTP Request"},
	{"reads from", "File Read"},
	{"reads a file", "File Read"},
	{"environment variable", "Environment"},
	{"from the database", "Database Read"},
	{"from the network", "Network Receive"},
}

var sinkSummaryRules = []keywordRule{
	{"executes a command", "Command Execution"},
	{"shell command", "Command Execution"},
	{"sql", "SQL Execution"},
	{"writes to", "File Write"},
	{"http response", "HTTP Response"},
	{"sends", "API Request"},
	{"outbound request", "API Request"},
	{"logs", "Logging"},
}

// SummaryFunnel nominates nodes whose ingestion-time LLM summaries
// describe data entering or leaving. Nodes without a summary never match.
type SummaryFunnel struct{}

func (SummaryFunnel) Name() string { return "summary" }

func (SummaryFunnel) QuerySources(tx graph.Tx, repoID string) ([]Candidate, error) {
	return matchBySummary(tx, repoID, "summary", sourceSummaryRules)
}

func (SummaryFunnel) QuerySinks(tx graph.Tx, repoID string) ([]Candidate, error) {
	return matchBySummary(tx, repoID, "summary", sinkSummaryRules)
}

func matchBySummary(tx graph.Tx, repoID, funnel string, rules []keywordRule) ([]Candidate, error) {
	nodes, err := graph.StructuralNodesOfRepository(tx, repoID)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, node := range nodes {
		summary, err := graph.SummaryOf(tx, node.ID)
		if errors.Is(err, graph.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		text := strings.ToLower(summary.Text)
		for _, rule := range rules {
			if !strings.Contains(text, rule.fragment) {
				continue
			}
			c, err := buildCandidate(tx, node, funnel, rule.category)
			if err != nil {
				return nil, err
			}
			c.Summary = summary.Text
			out = append(out, c)
			break
		}
	}
	return out, nil
}

func buildCandidate(tx graph.Tx, node *graph.StructuralNode, funnel, category string) (Candidate, error) {
	c := Candidate{Node: node, Funnel: funnel, Category: category}

	file, err := graph.ContainerFile(tx, node.ID)
	if err != nil {
		return c, err
	}
	c.FilePath = file.Path

	if summary, err := graph.SummaryOf(tx, node.ID); err == nil {
		c.Summary = summary.Text
	} else if !errors.Is(err, graph.ErrNotFound) {
		return c, err
	}
	return c, nil
}
