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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ariadne/pkg/graph"
	"github.com/kraklabs/ariadne/pkg/llm"
)

func testCandidate() Candidate {
	return Candidate{
		Node: &graph.StructuralNode{
			ID:        "node-1",
			Name:      "ReadUserInput",
			Kind:      graph.KindFunction,
			Signature: "func ReadUserInput() string",
			Code:      "func ReadUserInput() string {\n\treturn scan()\n}",
		},
		FilePath: "input.go",
		Category: "User Input",
		Funnel:   "keyword",
	}
}

func TestLLMAnalyzerAcceptsCandidate(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(
		`{"is_match": true, "name": "ReadUserInput", "category": "User Input", "description": "Reads from stdin", "confidence": 0.9}`,
	)
	a := NewLLMAnalyzer(mock, 0)

	v, err := a.AnalyzeSource(context.Background(), testCandidate())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "ReadUserInput", v.Name)
	assert.Equal(t, "User Input", v.Category)
	assert.Equal(t, 0.9, v.Confidence)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, llm.PromptIdentifySources, reqs[0].System)
	assert.Contains(t, reqs[0].User, "File: input.go")
	assert.Contains(t, reqs[0].User, "func ReadUserInput() string")
}

func TestLLMAnalyzerRejectsNonMatch(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(`{"is_match": false, "confidence": 0.95}`)
	a := NewLLMAnalyzer(mock, 0)

	v, err := a.AnalyzeSink(context.Background(), testCandidate())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLLMAnalyzerRejectsBelowThreshold(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(`{"is_match": true, "name": "X", "confidence": 0.3}`)
	a := NewLLMAnalyzer(mock, 0)

	v, err := a.AnalyzeSource(context.Background(), testCandidate())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLLMAnalyzerFillsDefaultsAndClamps(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(`{"is_match": true, "confidence": 1.4}`)
	a := NewLLMAnalyzer(mock, 0)

	v, err := a.AnalyzeSource(context.Background(), testCandidate())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "ReadUserInput", v.Name) // from the candidate
	assert.Equal(t, "User Input", v.Category)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestLLMAnalyzerPropagatesProviderError(t *testing.T) {
	mock := &llm.MockProvider{Err: assert.AnError}
	a := NewLLMAnalyzer(mock, 0)

	_, err := a.AnalyzeSource(context.Background(), testCandidate())
	assert.Error(t, err)
}

func TestLLMAnalyzerDataFlow(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(
		`{"is_match": true, "description": "Input reaches the response unescaped", "impact": "high", "vulnerability": "Cross-Site Scripting", "confidence": 0.85}`,
	)
	a := NewLLMAnalyzer(mock, 0)

	source := Endpoint{
		Finding:  &graph.Finding{Name: "ReadUserInput", Category: "User Input"},
		FilePath: "input.go",
	}
	sink := Endpoint{
		Finding:  &graph.Finding{Name: "RenderPage", Category: "HTTP Response"},
		FilePath: "render.go",
	}

	v, err := a.AnalyzeDataFlow(context.Background(), source, sink)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Cross-Site Scripting", v.Vulnerability)
	assert.Equal(t, "high", v.Impact)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, llm.PromptAnalyzeDataFlow, reqs[0].System)
	assert.Contains(t, reqs[0].User, "SOURCE:")
	assert.Contains(t, reqs[0].User, "SINK:")
	assert.Contains(t, reqs[0].User, "RenderPage")
}

func TestLLMAnalyzerDataFlowDefaultsInvalidImpact(t *testing.T) {
	mock := (&llm.MockProvider{}).Reply(
		`{"is_match": true, "vulnerability": "SQL Injection", "impact": "catastrophic", "confidence": 0.7}`,
	)
	a := NewLLMAnalyzer(mock, 0)

	v, err := a.AnalyzeDataFlow(context.Background(),
		Endpoint{Finding: &graph.Finding{Name: "A"}},
		Endpoint{Finding: &graph.Finding{Name: "B"}},
	)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, string(graph.ImpactMedium), v.Impact)
}
