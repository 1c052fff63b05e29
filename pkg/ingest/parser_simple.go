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
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// simplifiedParser extracts structures by line and brace/indent scanning.
// It trades accuracy for zero parse dependencies: nested declarations and
// exotic formatting can confuse it, which is acceptable because per-file
// failures are isolated upstream.
type simplifiedParser struct {
	maxCode int
	logger  *slog.Logger
}

func newSimplifiedParser(maxCode int, logger *slog.Logger) *simplifiedParser {
	return &simplifiedParser{maxCode: maxCode, logger: logger}
}

func (p *simplifiedParser) Parse(file SourceFile, content []byte) (*FileParse, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: not valid UTF-8", file.Path)
	}

	lines := strings.Split(string(content), "\n")
	var structures []Structure

	switch file.Language {
	case "go":
		structures = p.parseGo(lines)
	case "python":
		structures = p.parsePython(lines)
	case "javascript", "typescript":
		structures = p.parseJS(lines)
	default:
		return nil, fmt.Errorf("%s: no simplified parser for %s", file.Path, file.Language)
	}

	return &FileParse{Language: file.Language, Structures: structures}, nil
}

// parseGo finds func, method and type declarations at column zero and
// closes each span by brace counting.
func (p *simplifiedParser) parseGo(lines []string) []Structure {
	var out []Structure

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, "func ") {
			name, kind, sig := goFuncHeader(line)
			if name == "" {
				continue
			}
			end := braceSpanEnd(lines, i)
			out = append(out, Structure{
				Name:      name,
				Kind:      kind,
				Signature: sig,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			})
			i = end
			continue
		}

		if strings.HasPrefix(line, "type ") {
			rest := strings.TrimPrefix(line, "type ")
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				continue
			}
			if fields[1] != "struct" && fields[1] != "interface" {
				continue
			}
			end := i
			if strings.Contains(line, "{") {
				end = braceSpanEnd(lines, i)
			}
			out = append(out, Structure{
				Name:      fields[0],
				Kind:      graph.KindClass,
				Signature: strings.TrimSpace(line),
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			})
			i = end
		}
	}
	return out
}

// goFuncHeader splits a "func ..." line into name, kind and signature.
// Methods get "Receiver.Name" names like the rest of the toolchain.
func goFuncHeader(line string) (string, graph.NodeKind, string) {
	sig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "{"))
	rest := strings.TrimPrefix(line, "func ")

	kind := graph.KindFunction
	receiver := ""
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", "", ""
		}
		receiver = goReceiverType(rest[1:end])
		rest = strings.TrimSpace(rest[end+1:])
		kind = graph.KindMethod
	}

	paren := strings.IndexAny(rest, "([")
	if paren <= 0 {
		return "", "", ""
	}
	name := strings.TrimSpace(rest[:paren])
	if name == "" {
		return "", "", ""
	}
	if receiver != "" {
		name = receiver + "." + name
	}
	return name, kind, sig
}

// goReceiverType extracts "Server" from "s *Server" or "s Server[T]".
func goReceiverType(recv string) string {
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return ""
	}
	t := fields[len(fields)-1]
	t = strings.TrimPrefix(t, "*")
	if idx := strings.Index(t, "["); idx > 0 {
		t = t[:idx]
	}
	return t
}

// braceSpanEnd returns the index of the line that balances the braces
// opened from start. Declarations with no brace span end on their own line.
func braceSpanEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		if strings.Contains(lines[i], "{") {
			opened = true
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// parsePython finds top-level def and class statements and closes spans by
// indentation. Methods inside a class become children of the class.
func (p *simplifiedParser) parsePython(lines []string) []Structure {
	var out []Structure

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if indentOf(lines[i]) != 0 {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def "):
			name := pyDefName(trimmed)
			if name == "" {
				continue
			}
			end := indentSpanEnd(lines, i)
			out = append(out, Structure{
				Name:      name,
				Kind:      graph.KindFunction,
				Signature: strings.TrimSuffix(trimmed, ":"),
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			})
			i = end

		case strings.HasPrefix(trimmed, "class "):
			name := pyClassName(trimmed)
			if name == "" {
				continue
			}
			end := indentSpanEnd(lines, i)
			cls := Structure{
				Name:      name,
				Kind:      graph.KindClass,
				Signature: strings.TrimSuffix(trimmed, ":"),
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			}
			cls.Children = p.pyMethods(lines, i+1, end, name)
			out = append(out, cls)
			i = end
		}
	}
	return out
}

// pyMethods collects def statements one indent level inside a class body.
func (p *simplifiedParser) pyMethods(lines []string, start, end int, className string) []Structure {
	var methods []Structure
	bodyIndent := -1

	for i := start; i <= end && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		indent := indentOf(lines[i])
		if bodyIndent < 0 {
			bodyIndent = indent
		}
		if indent != bodyIndent {
			continue
		}
		if !strings.HasPrefix(trimmed, "def ") && !strings.HasPrefix(trimmed, "async def ") {
			continue
		}
		name := pyDefName(trimmed)
		if name == "" {
			continue
		}
		mEnd := indentSpanEnd(lines, i)
		methods = append(methods, Structure{
			Name:      className + "." + name,
			Kind:      graph.KindMethod,
			Signature: strings.TrimSuffix(trimmed, ":"),
			StartLine: i + 1,
			EndLine:   mEnd + 1,
			Code:      truncateCode(strings.Join(lines[i:mEnd+1], "\n"), p.maxCode),
		})
		i = mEnd
	}
	return methods
}

func pyDefName(line string) string {
	line = strings.TrimPrefix(line, "async ")
	line = strings.TrimPrefix(line, "def ")
	if idx := strings.Index(line, "("); idx > 0 {
		return strings.TrimSpace(line[:idx])
	}
	return ""
}

func pyClassName(line string) string {
	line = strings.TrimPrefix(line, "class ")
	if idx := strings.IndexAny(line, "(:"); idx > 0 {
		return strings.TrimSpace(line[:idx])
	}
	return ""
}

// indentOf counts leading spaces, tabs expanding to 4.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// indentSpanEnd returns the last line of the block opened at start: the
// line before the next non-blank line at the same or lower indent.
func indentSpanEnd(lines []string, start int) int {
	base := indentOf(lines[start])
	end := start
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentOf(lines[i]) <= base {
			break
		}
		end = i
	}
	return end
}

// parseJS finds function and class declarations and closes spans by brace
// counting. Class methods become children.
func (p *simplifiedParser) parseJS(lines []string) []Structure {
	var out []Structure

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if name := jsFunctionName(trimmed); name != "" {
			end := braceSpanEnd(lines, i)
			out = append(out, Structure{
				Name:      name,
				Kind:      graph.KindFunction,
				Signature: strings.TrimSuffix(strings.TrimSpace(trimmed), "{"),
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			})
			i = end
			continue
		}

		if name := jsClassName(trimmed); name != "" {
			end := braceSpanEnd(lines, i)
			cls := Structure{
				Name:      name,
				Kind:      graph.KindClass,
				Signature: strings.TrimSuffix(strings.TrimSpace(trimmed), "{"),
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      truncateCode(strings.Join(lines[i:end+1], "\n"), p.maxCode),
			}
			cls.Children = p.jsMethods(lines, i+1, end, name)
			out = append(out, cls)
			i = end
		}
	}
	return out
}

// jsMethods collects "name(...) {" members of a class body.
func (p *simplifiedParser) jsMethods(lines []string, start, end int, className string) []Structure {
	var methods []Structure
	for i := start; i < end && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		name := jsMethodName(trimmed)
		if name == "" {
			continue
		}
		mEnd := braceSpanEnd(lines, i)
		if mEnd >= end {
			mEnd = end - 1
		}
		methods = append(methods, Structure{
			Name:      className + "." + name,
			Kind:      graph.KindMethod,
			Signature: strings.TrimSuffix(strings.TrimSpace(trimmed), "{"),
			StartLine: i + 1,
			EndLine:   mEnd + 1,
			Code:      truncateCode(strings.Join(lines[i:mEnd+1], "\n"), p.maxCode),
		})
		i = mEnd
	}
	return methods
}

func jsFunctionName(line string) string {
	for _, prefix := range []string{"export default function ", "export function ", "async function ", "export async function ", "function "} {
		if strings.HasPrefix(line, prefix) {
			rest := strings.TrimPrefix(line, prefix)
			if idx := strings.Index(rest, "("); idx > 0 {
				return strings.TrimSpace(rest[:idx])
			}
		}
	}
	// const name = (...) => { and const name = function(...) {
	for _, prefix := range []string{"export const ", "const ", "let ", "var "} {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimPrefix(line, prefix)
		eq := strings.Index(rest, "=")
		if eq <= 0 {
			continue
		}
		rhs := strings.TrimSpace(rest[eq+1:])
		if strings.Contains(rhs, "=>") || strings.HasPrefix(rhs, "function") || strings.HasPrefix(rhs, "async") {
			return strings.TrimSpace(rest[:eq])
		}
	}
	return ""
}

func jsClassName(line string) string {
	for _, prefix := range []string{"export default class ", "export class ", "class "} {
		if strings.HasPrefix(line, prefix) {
			rest := strings.TrimPrefix(line, prefix)
			if idx := strings.IndexAny(rest, " {"); idx > 0 {
				return rest[:idx]
			}
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// jsMethodName matches "name(args) {" class members, skipping control
// keywords that share the shape.
func jsMethodName(line string) string {
	paren := strings.Index(line, "(")
	if paren <= 0 || !strings.Contains(line, "{") {
		return ""
	}
	name := strings.TrimSpace(line[:paren])
	name = strings.TrimPrefix(name, "async ")
	name = strings.TrimPrefix(name, "static ")
	name = strings.TrimPrefix(name, "get ")
	name = strings.TrimPrefix(name, "set ")
	if name == "" || strings.ContainsAny(name, " .=<>") {
		return ""
	}
	switch name {
	case "if", "for", "while", "switch", "catch", "return", "function":
		return ""
	}
	return name
}
