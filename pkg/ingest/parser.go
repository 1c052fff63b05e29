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
	"log/slog"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// Structure is one parsed code construct. Children are constructs nested
// inside it (methods of a class, closures of a function).
type Structure struct {
	Name      string
	Kind      graph.NodeKind
	Signature string
	StartLine int // 1-indexed, inclusive
	EndLine   int
	Code      string
	Children  []Structure
}

// FileParse is the structural tree extracted from one source file.
type FileParse struct {
	Language   string
	Structures []Structure
}

// CodeParser extracts the structural tree of a single source file.
// Implementations must be safe for concurrent use; the pipeline calls
// Parse from its worker pool.
type CodeParser interface {
	// Parse parses content. An error means the file yields no structures;
	// the pipeline records it and moves on.
	Parse(file SourceFile, content []byte) (*FileParse, error)
}

// ParserMode selects the parser implementation.
type ParserMode string

const (
	// ParserModeTreeSitter uses tree-sitter grammars. Accurate, Go only.
	ParserModeTreeSitter ParserMode = "treesitter"

	// ParserModeSimplified uses line/pattern matching. Less accurate,
	// covers Go, Python and JavaScript/TypeScript.
	ParserModeSimplified ParserMode = "simplified"

	// ParserModeAuto uses tree-sitter where a grammar exists and falls
	// back to the simplified parser otherwise.
	ParserModeAuto ParserMode = "auto"
)

// DefaultMaxCodeBytes caps the code text stored per structural node.
const DefaultMaxCodeBytes = 32 * 1024

// NewCodeParser builds a parser for the given mode.
func NewCodeParser(mode ParserMode, maxCodeBytes int, logger *slog.Logger) CodeParser {
	if logger == nil {
		logger = slog.Default()
	}
	if maxCodeBytes <= 0 {
		maxCodeBytes = DefaultMaxCodeBytes
	}

	simplified := newSimplifiedParser(maxCodeBytes, logger)
	switch mode {
	case ParserModeSimplified:
		return simplified
	case ParserModeTreeSitter:
		return newTreeSitterParser(maxCodeBytes, logger, nil)
	default:
		// auto: tree-sitter for languages with a grammar, simplified for
		// the rest.
		return newTreeSitterParser(maxCodeBytes, logger, simplified)
	}
}

// truncateCode caps code text at max bytes without splitting a line.
func truncateCode(code string, max int) string {
	if max <= 0 || len(code) <= max {
		return code
	}
	cut := code[:max]
	if idx := lastNewline(cut); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n// ... truncated"
}

func lastNewline(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
