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
	"log/slog"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// treeSitterParser extracts structures from a real AST. Only Go has a
// grammar wired; other languages go to the fallback parser when one is
// configured.
type treeSitterParser struct {
	maxCode  int
	logger   *slog.Logger
	fallback CodeParser

	// sitter parsers are not safe for concurrent use.
	pool sync.Pool
}

func newTreeSitterParser(maxCode int, logger *slog.Logger, fallback CodeParser) *treeSitterParser {
	p := &treeSitterParser{
		maxCode:  maxCode,
		logger:   logger,
		fallback: fallback,
	}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(golang.GetLanguage())
		return sp
	}
	return p
}

func (p *treeSitterParser) Parse(file SourceFile, content []byte) (*FileParse, error) {
	if file.Language != "go" {
		if p.fallback != nil {
			return p.fallback.Parse(file, content)
		}
		return nil, fmt.Errorf("%s: no tree-sitter grammar for %s", file.Path, file.Language)
	}

	sp := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(sp)

	tree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("%s: tree-sitter parse: %w", file.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		// Tree-sitter recovers from syntax errors; extract what it can.
		p.logger.Warn("ingest.parse.syntax_errors", "path", file.Path)
	}

	var structures []Structure
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "function_declaration":
			if s := p.goFunction(child, content); s != nil {
				structures = append(structures, *s)
			}
		case "method_declaration":
			if s := p.goMethod(child, content); s != nil {
				structures = append(structures, *s)
			}
		case "type_declaration":
			structures = append(structures, p.goTypes(child, content)...)
		}
	}

	return &FileParse{Language: "go", Structures: structures}, nil
}

func (p *treeSitterParser) goFunction(node *sitter.Node, content []byte) *Structure {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, content)

	var sig strings.Builder
	sig.WriteString("func ")
	sig.WriteString(name)
	sig.WriteString(fieldText(node, "type_parameters", content))
	sig.WriteString(fieldText(node, "parameters", content))
	if result := fieldText(node, "result", content); result != "" {
		sig.WriteString(" ")
		sig.WriteString(result)
	}

	return p.structure(node, content, name, graph.KindFunction, sig.String())
}

func (p *treeSitterParser) goMethod(node *sitter.Node, content []byte) *Structure {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, content)

	receiver := fieldText(node, "receiver", content)
	if recvType := receiverTypeName(node.ChildByFieldName("receiver"), content); recvType != "" {
		name = recvType + "." + name
	}

	var sig strings.Builder
	sig.WriteString("func ")
	if receiver != "" {
		sig.WriteString(receiver)
		sig.WriteString(" ")
	}
	sig.WriteString(nodeText(nameNode, content))
	sig.WriteString(fieldText(node, "type_parameters", content))
	sig.WriteString(fieldText(node, "parameters", content))
	if result := fieldText(node, "result", content); result != "" {
		sig.WriteString(" ")
		sig.WriteString(result)
	}

	return p.structure(node, content, name, graph.KindMethod, sig.String())
}

// goTypes extracts struct and interface declarations from a type
// declaration, covering both single specs and type blocks.
func (p *treeSitterParser) goTypes(node *sitter.Node, content []byte) []Structure {
	var out []Structure

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "type_spec":
				if s := p.goTypeSpec(child, content); s != nil {
					out = append(out, *s)
				}
			case "type_spec_list":
				visit(child)
			}
		}
	}
	visit(node)
	return out
}

func (p *treeSitterParser) goTypeSpec(node *sitter.Node, content []byte) *Structure {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return nil
	}
	switch typeNode.Type() {
	case "struct_type", "interface_type":
	default:
		// Aliases and basic type definitions are not structural containers.
		return nil
	}

	name := nodeText(nameNode, content)
	sig := "type " + name + " " + typeNode.Type()[:len(typeNode.Type())-len("_type")]
	return p.structure(node, content, name, graph.KindClass, sig)
}

func (p *treeSitterParser) structure(node *sitter.Node, content []byte, name string, kind graph.NodeKind, sig string) *Structure {
	return &Structure{
		Name:      name,
		Kind:      kind,
		Signature: sig,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Code:      truncateCode(string(content[node.StartByte():node.EndByte()]), p.maxCode),
	}
}

// receiverTypeName extracts "Server" from receivers like (s *Server) or
// (s Server[T]).
func receiverTypeName(recv *sitter.Node, content []byte) string {
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.ChildCount()); i++ {
		child := recv.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		name := nodeText(typeNode, content)
		name = strings.TrimPrefix(name, "*")
		if idx := strings.Index(name, "["); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	return ""
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

func fieldText(n *sitter.Node, field string, content []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return nodeText(child, content)
}
