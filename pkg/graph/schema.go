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

package graph

// Node labels. The label set is the schema: every node written by Ariadne
// carries exactly one of these.
const (
	LabelRepository     = "Repository"
	LabelFile           = "File"
	LabelStructuralNode = "StructuralNode"
	LabelSummary        = "Summary"
	LabelInvestigation  = "Investigation"
	LabelSource         = "Source"
	LabelSink           = "Sink"
	LabelDataFlowPath   = "DataFlowPath"
)

// Relationship types.
const (
	// RelHasFile links a Repository to each of its Files.
	RelHasFile = "HAS_FILE"

	// RelDefines links a File or StructuralNode to a directly contained
	// StructuralNode. The DEFINES edges of one file form a tree rooted at
	// the File node.
	RelDefines = "DEFINES"

	// RelPartOf is the inverse of RelDefines, written alongside it so the
	// containment chain can be walked upward without a reverse scan.
	RelPartOf = "PART_OF"

	// RelHasSummary links a StructuralNode to its current Summary.
	RelHasSummary = "HAS_SUMMARY"

	// RelHasSource, RelHasSink and RelHasDataFlowPath link an
	// Investigation to its findings.
	RelHasSource       = "HAS_SOURCE"
	RelHasSink         = "HAS_SINK"
	RelHasDataFlowPath = "HAS_DATA_FLOW_PATH"

	// RelFoundIn links a Source or Sink to the StructuralNode where it
	// was identified.
	RelFoundIn = "FOUND_IN"

	// RelConnects links a DataFlowPath to its Source and its Sink.
	RelConnects = "CONNECTS"
)

// NodeKind is the variant of a StructuralNode.
type NodeKind string

// StructuralNode kinds produced by the parsers.
const (
	KindFunction NodeKind = "function"
	KindMethod   NodeKind = "method"
	KindClass    NodeKind = "class"
	KindModule   NodeKind = "module"
)

// Valid reports whether k is a known structural node kind.
func (k NodeKind) Valid() bool {
	switch k {
	case KindFunction, KindMethod, KindClass, KindModule:
		return true
	}
	return false
}

// Impact is the severity of a data-flow path.
type Impact string

// Impact levels, lowest to highest.
const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Valid reports whether i is a known impact level.
func (i Impact) Valid() bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// Investigation statuses.
const (
	InvestigationInProgress = "in-progress"
	InvestigationComplete   = "complete"
)
