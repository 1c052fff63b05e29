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
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ariadne/internal/bootstrap"
	"github.com/kraklabs/ariadne/internal/errors"
	"github.com/kraklabs/ariadne/internal/output"
	"github.com/kraklabs/ariadne/internal/ui"
	"github.com/kraklabs/ariadne/pkg/graph"
)

// queryNode is the serializable form of one matched node.
type queryNode struct {
	ID     string         `json:"id"`
	Labels []string       `json:"labels"`
	Props  map[string]any `json:"props"`
}

// runQuery executes the 'query' command: match graph nodes by label and
// optional property equality filters.
func runQuery(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	label := fs.String("label", "", "Node label to match (Repository, File, StructuralNode, ...)")
	props := fs.StringArray("property", nil, "Property filter as key=value (repeatable)")
	limit := fs.Int("limit", 50, "Maximum nodes to return (0 = no limit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ariadne query --label <label> [--property key=value]...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *label == "" {
		errors.FatalError(errors.NewInputError(
			"--label is required",
			"queries scan one label's index",
			"ariadne query --label StructuralNode --property name=main",
		), globals.JSON)
	}

	filters, err := parsePropertyFilters(*props)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"invalid property filter",
			err.Error(),
			"filters take the form key=value",
		), globals.JSON)
	}

	rt, err := bootstrap.Setup(bootstrap.Options{
		ConfigPath: globals.ConfigPath,
		Debug:      globals.Debug,
		Quiet:      globals.Quiet,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer rt.Close()

	var matched []queryNode
	err = rt.Store.View(context.Background(), func(tx graph.Tx) error {
		nodes, err := tx.NodesByLabel(*label)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if matchesFilters(n, filters) {
				matched = append(matched, queryNode{ID: n.ID, Labels: n.Labels, Props: n.Props})
			}
		}
		return nil
	})
	if err != nil {
		errors.FatalError(errors.NewStoreError("query failed", err.Error(), "", err), globals.JSON)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if *limit > 0 && len(matched) > *limit {
		matched = matched[:*limit]
	}

	if globals.JSON {
		if err := output.JSON(matched); err != nil {
			errors.FatalError(errors.NewInternalError("cannot encode nodes", err.Error(), "", err), globals.JSON)
		}
		return
	}

	if len(matched) == 0 {
		ui.Info("No nodes matched.")
		return
	}
	for _, n := range matched {
		name, _ := n.Props["name"].(string)
		if name == "" {
			name, _ = n.Props["path"].(string)
		}
		if name == "" {
			name, _ = n.Props["title"].(string)
		}
		fmt.Printf("%s  %s\n", n.ID, name)
	}
	fmt.Printf("%s\n", ui.DimText(fmt.Sprintf("%d node(s)", len(matched))))
}

// parsePropertyFilters splits repeated key=value flags into a map.
func parsePropertyFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(raw))
	for _, r := range raw {
		key, value, ok := strings.Cut(r, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed filter %q", r)
		}
		filters[key] = value
	}
	return filters, nil
}

// matchesFilters reports whether every filter key equals the node
// property's string form. Numeric properties compare against their
// fmt.Sprint rendering.
func matchesFilters(n *graph.Node, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := n.Props[key]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
