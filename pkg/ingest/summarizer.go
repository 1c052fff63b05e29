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

package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/kraklabs/ariadne/pkg/llm"
)

// Summarizer produces one-paragraph descriptions of structural nodes
// through the configured LLM provider.
type Summarizer struct {
	provider llm.Provider
}

// NewSummarizer wraps a provider. A nil provider yields a nil Summarizer,
// which the pipeline treats as summarization disabled.
func NewSummarizer(provider llm.Provider) *Summarizer {
	if provider == nil {
		return nil
	}
	return &Summarizer{provider: provider}
}

// Summarize describes one code structure. The prompt carries the source
// span plus the enclosing structure's name and the names of direct
// children, so the model sees the node in its containment context. The
// returned text is plain prose; the model name is returned for
// provenance.
func (s *Summarizer) Summarize(ctx context.Context, path, parent string, st Structure) (text, model string, err error) {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Element: %s (%s)\n", st.Name, st.Kind)
	if st.Signature != "" {
		fmt.Fprintf(&b, "Signature: %s\n", st.Signature)
	}
	if parent != "" {
		fmt.Fprintf(&b, "Part of: %s\n", parent)
	}
	if len(st.Children) > 0 {
		names := make([]string, len(st.Children))
		for i, c := range st.Children {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "Contains: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "\n%s\n", st.Code)

	resp, err := s.provider.Complete(ctx, llm.Request{
		System: llm.PromptSummarizeCode,
		User:   b.String(),
	})
	if err != nil {
		return "", "", fmt.Errorf("summarize %s: %w", st.Name, err)
	}
	text = strings.TrimSpace(resp.Text)
	if text == "" {
		return "", "", fmt.Errorf("summarize %s: empty reply", st.Name)
	}
	return text, resp.Model, nil
}
