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
	"fmt"
	"strings"

	"github.com/kraklabs/ariadne/pkg/graph"
	"github.com/kraklabs/ariadne/pkg/llm"
)

// Verdict accepts a candidate as a source or sink. A nil *Verdict from
// an analyzer means the candidate was rejected.
type Verdict struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// FlowVerdict accepts a source/sink pair as a data-flow path.
type FlowVerdict struct {
	Description   string  `json:"description"`
	Impact        string  `json:"impact"`
	Vulnerability string  `json:"vulnerability"`
	Confidence    float64 `json:"confidence"`
}

// Endpoint is one side of a pair analysis: a validated finding plus the
// structural node it was found in.
type Endpoint struct {
	Finding  *graph.Finding
	Node     *graph.StructuralNode
	FilePath string
}

// Analyzer validates funnel candidates and source/sink pairs. A nil
// verdict with a nil error is a rejection; an error means the call
// failed and the engine treats the candidate as rejected (fail closed).
type Analyzer interface {
	Name() string
	AnalyzeSource(ctx context.Context, c Candidate) (*Verdict, error)
	AnalyzeSink(ctx context.Context, c Candidate) (*Verdict, error)
	AnalyzeDataFlow(ctx context.Context, source, sink Endpoint) (*FlowVerdict, error)
}

// DefaultConfidenceThreshold rejects verdicts the model itself is not
// confident about.
const DefaultConfidenceThreshold = 0.5

// LLMAnalyzer validates candidates by prompting an LLM provider for a
// strict-JSON verdict.
type LLMAnalyzer struct {
	provider  llm.Provider
	threshold float64
}

// NewLLMAnalyzer wraps a provider. threshold <= 0 uses the default.
func NewLLMAnalyzer(provider llm.Provider, threshold float64) *LLMAnalyzer {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &LLMAnalyzer{provider: provider, threshold: threshold}
}

func (a *LLMAnalyzer) Name() string { return "llm" }

func (a *LLMAnalyzer) AnalyzeSource(ctx context.Context, c Candidate) (*Verdict, error) {
	return a.judge(ctx, llm.PromptIdentifySources, c)
}

func (a *LLMAnalyzer) AnalyzeSink(ctx context.Context, c Candidate) (*Verdict, error) {
	return a.judge(ctx, llm.PromptIdentifySinks, c)
}

func (a *LLMAnalyzer) judge(ctx context.Context, prompt string, c Candidate) (*Verdict, error) {
	resp, err := a.provider.Complete(ctx, llm.Request{
		System: prompt,
		User:   candidatePrompt(c),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", c.Node.Name, err)
	}

	var v struct {
		IsMatch bool `json:"is_match"`
		Verdict
	}
	if err := llm.DecodeJSON(resp.Text, &v); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", c.Node.Name, err)
	}
	if !v.IsMatch || v.Confidence < a.threshold {
		return nil, nil
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	if v.Name == "" {
		v.Name = c.Node.Name
	}
	if v.Category == "" {
		v.Category = c.Category
	}
	return &v.Verdict, nil
}

func (a *LLMAnalyzer) AnalyzeDataFlow(ctx context.Context, source, sink Endpoint) (*FlowVerdict, error) {
	var b strings.Builder
	b.WriteString("SOURCE:\n")
	endpointPrompt(&b, source)
	b.WriteString("\nSINK:\n")
	endpointPrompt(&b, sink)

	resp, err := a.provider.Complete(ctx, llm.Request{
		System: llm.PromptAnalyzeDataFlow,
		User:   b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze flow %s -> %s: %w", source.Finding.Name, sink.Finding.Name, err)
	}

	var v struct {
		IsMatch bool `json:"is_match"`
		FlowVerdict
	}
	if err := llm.DecodeJSON(resp.Text, &v); err != nil {
		return nil, fmt.Errorf("analyze flow %s -> %s: %w", source.Finding.Name, sink.Finding.Name, err)
	}
	if !v.IsMatch || v.Confidence < a.threshold {
		return nil, nil
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	if !graph.Impact(v.Impact).Valid() {
		v.Impact = string(graph.ImpactMedium)
	}
	return &v.FlowVerdict, nil
}

// candidatePrompt renders one candidate for a classification prompt.
func candidatePrompt(c Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", c.FilePath)
	fmt.Fprintf(&b, "Element: %s (%s)\n", c.Node.Name, c.Node.Kind)
	if c.Node.Signature != "" {
		fmt.Fprintf(&b, "Signature: %s\n", c.Node.Signature)
	}
	fmt.Fprintf(&b, "Suggested category: %s\n", c.Category)
	if c.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", c.Summary)
	}
	if c.Node.Code != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Node.Code)
	}
	return b.String()
}

func endpointPrompt(b *strings.Builder, e Endpoint) {
	fmt.Fprintf(b, "  Name: %s\n", e.Finding.Name)
	fmt.Fprintf(b, "  Category: %s\n", e.Finding.Category)
	fmt.Fprintf(b, "  File: %s\n", e.FilePath)
	if e.Finding.Description != "" {
		fmt.Fprintf(b, "  Description: %s\n", e.Finding.Description)
	}
	if e.Node != nil && e.Node.Code != "" {
		fmt.Fprintf(b, "  Code:\n%s\n", e.Node.Code)
	}
}
