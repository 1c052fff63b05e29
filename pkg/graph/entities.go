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

import (
	"fmt"
	"time"
)

// Repository is the root of one ingested codebase.
type Repository struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source"` // local path or git URL
	IngestedAt time.Time `json:"ingested_at"`
}

// PutRepository writes a Repository node. An empty ID is derived from the
// repository name.
func PutRepository(tx Tx, r *Repository) error {
	if r.Name == "" {
		return fmt.Errorf("graph: repository name is empty")
	}
	if r.ID == "" {
		r.ID = RepositoryID(r.Name)
	}
	return tx.PutNode(&Node{
		ID:     r.ID,
		Labels: []string{LabelRepository},
		Props: map[string]any{
			"name":        r.Name,
			"source":      r.Source,
			"ingested_at": r.IngestedAt.Format(time.RFC3339Nano),
		},
	})
}

// GetRepository loads a Repository by node ID.
func GetRepository(tx Tx, id string) (*Repository, error) {
	node, err := getLabeled(tx, id, LabelRepository)
	if err != nil {
		return nil, err
	}
	return repositoryFromNode(node), nil
}

// Repositories lists every ingested repository.
func Repositories(tx Tx) ([]*Repository, error) {
	nodes, err := tx.NodesByLabel(LabelRepository)
	if err != nil {
		return nil, err
	}
	out := make([]*Repository, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, repositoryFromNode(n))
	}
	return out, nil
}

func repositoryFromNode(n *Node) *Repository {
	return &Repository{
		ID:         n.ID,
		Name:       propString(n.Props, "name"),
		Source:     propString(n.Props, "source"),
		IngestedAt: propTime(n.Props, "ingested_at"),
	}
}

// File is a single source file within a Repository.
type File struct {
	ID           string `json:"id"`
	RepositoryID string `json:"repository_id"`
	Path         string `json:"path"` // relative to the repository root
	Language     string `json:"language"`
	Size         int64  `json:"size"`
}

// PutFile writes a File node and its HAS_FILE edge. An empty ID is derived
// from the repository ID and path, which makes file writes upserts: the
// same path in the same repository always lands on the same node.
func PutFile(tx Tx, f *File) error {
	if f.RepositoryID == "" || f.Path == "" {
		return fmt.Errorf("graph: file requires repository ID and path")
	}
	if f.ID == "" {
		f.ID = FileID(f.RepositoryID, f.Path)
	}
	err := tx.PutNode(&Node{
		ID:     f.ID,
		Labels: []string{LabelFile},
		Props: map[string]any{
			"repo_id":  f.RepositoryID,
			"path":     f.Path,
			"language": f.Language,
			"size":     f.Size,
		},
	})
	if err != nil {
		return err
	}
	return tx.CreateRelationship(&Relationship{From: f.RepositoryID, To: f.ID, Type: RelHasFile})
}

// FilesOfRepository returns every File of a repository.
func FilesOfRepository(tx Tx, repoID string) ([]*File, error) {
	nodes, err := tx.Out(repoID, RelHasFile)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(nodes))
	for _, n := range nodes {
		files = append(files, fileFromNode(n))
	}
	return files, nil
}

func fileFromNode(n *Node) *File {
	return &File{
		ID:           n.ID,
		RepositoryID: propString(n.Props, "repo_id"),
		Path:         propString(n.Props, "path"),
		Language:     propString(n.Props, "language"),
		Size:         int64(propInt(n.Props, "size")),
	}
}

// StructuralNode is a parsed code construct with a source span. Containment
// is a tree: ParentID is empty for file-level constructs and otherwise
// names another StructuralNode in the same file.
type StructuralNode struct {
	ID           string   `json:"id"`
	RepositoryID string   `json:"repository_id"`
	FileID       string   `json:"file_id"`
	ParentID     string   `json:"parent_id,omitempty"`
	Name         string   `json:"name"`
	Kind         NodeKind `json:"kind"`
	Signature    string   `json:"signature,omitempty"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	Code         string   `json:"code,omitempty"`
}

// PutStructuralNode writes a StructuralNode and its containment edges
// (DEFINES downward from the parent, PART_OF upward). The parent, file and
// repository nodes must already exist in the transaction, which keeps the
// containment tree rooted and acyclic by construction.
func PutStructuralNode(tx Tx, sn *StructuralNode) error {
	if !sn.Kind.Valid() {
		return fmt.Errorf("graph: invalid structural node kind %q", sn.Kind)
	}
	if sn.FileID == "" || sn.Name == "" {
		return fmt.Errorf("graph: structural node requires file ID and name")
	}
	if sn.ID == "" {
		sn.ID = StructuralNodeID(sn.FileID, sn.Name, sn.StartLine, sn.EndLine)
	}
	parent := sn.ParentID
	if parent == "" {
		parent = sn.FileID
	}
	if parent == sn.ID {
		return fmt.Errorf("graph: structural node %q cannot contain itself", sn.ID)
	}

	err := tx.PutNode(&Node{
		ID:     sn.ID,
		Labels: []string{LabelStructuralNode},
		Props: map[string]any{
			"repo_id":    sn.RepositoryID,
			"file_id":    sn.FileID,
			"name":       sn.Name,
			"kind":       string(sn.Kind),
			"signature":  sn.Signature,
			"start_line": sn.StartLine,
			"end_line":   sn.EndLine,
			"code":       sn.Code,
		},
	})
	if err != nil {
		return err
	}
	if err := tx.CreateRelationship(&Relationship{From: parent, To: sn.ID, Type: RelDefines}); err != nil {
		return err
	}
	return tx.CreateRelationship(&Relationship{From: sn.ID, To: parent, Type: RelPartOf})
}

// GetStructuralNode loads a StructuralNode by ID.
func GetStructuralNode(tx Tx, id string) (*StructuralNode, error) {
	node, err := getLabeled(tx, id, LabelStructuralNode)
	if err != nil {
		return nil, err
	}
	return structuralNodeFromNode(node), nil
}

// StructuralNodesOfRepository returns every StructuralNode belonging to
// the repository, in no particular order.
func StructuralNodesOfRepository(tx Tx, repoID string) ([]*StructuralNode, error) {
	nodes, err := tx.NodesByLabel(LabelStructuralNode)
	if err != nil {
		return nil, err
	}
	var out []*StructuralNode
	for _, n := range nodes {
		if propString(n.Props, "repo_id") == repoID {
			out = append(out, structuralNodeFromNode(n))
		}
	}
	return out, nil
}

// ContainerFile walks the PART_OF chain upward from a structural node and
// returns the File it roots at.
func ContainerFile(tx Tx, nodeID string) (*File, error) {
	id := nodeID
	// The containment tree is written acyclic; the bound guards against a
	// corrupted store looping forever.
	for range 1024 {
		parents, err := tx.Out(id, RelPartOf)
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			return nil, fmt.Errorf("graph: node %q has no container", id)
		}
		p := parents[0]
		if p.HasLabel(LabelFile) {
			return fileFromNode(p), nil
		}
		id = p.ID
	}
	return nil, fmt.Errorf("graph: containment chain from %q did not terminate", nodeID)
}

func structuralNodeFromNode(n *Node) *StructuralNode {
	return &StructuralNode{
		ID:           n.ID,
		RepositoryID: propString(n.Props, "repo_id"),
		FileID:       propString(n.Props, "file_id"),
		Name:         propString(n.Props, "name"),
		Kind:         NodeKind(propString(n.Props, "kind")),
		Signature:    propString(n.Props, "signature"),
		StartLine:    propInt(n.Props, "start_line"),
		EndLine:      propInt(n.Props, "end_line"),
		Code:         propString(n.Props, "code"),
	}
}

// Summary is an LLM-generated description of one StructuralNode.
type Summary struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"node_id"`
	Text      string    `json:"text"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PutSummary upserts the summary of a structural node. The summary ID is
// derived from the node ID, so re-summarization overwrites rather than
// accumulating stale summaries.
func PutSummary(tx Tx, s *Summary) error {
	if s.NodeID == "" || s.Text == "" {
		return fmt.Errorf("graph: summary requires node ID and text")
	}
	s.ID = SummaryID(s.NodeID)
	err := tx.PutNode(&Node{
		ID:     s.ID,
		Labels: []string{LabelSummary},
		Props: map[string]any{
			"node_id":    s.NodeID,
			"text":       s.Text,
			"model":      s.Model,
			"created_at": s.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return err
	}
	return tx.CreateRelationship(&Relationship{From: s.NodeID, To: s.ID, Type: RelHasSummary})
}

// SummaryOf returns the current summary of a structural node, or
// ErrNotFound if it has none.
func SummaryOf(tx Tx, nodeID string) (*Summary, error) {
	nodes, err := tx.Out(nodeID, RelHasSummary)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	n := nodes[0]
	return &Summary{
		ID:        n.ID,
		NodeID:    propString(n.Props, "node_id"),
		Text:      propString(n.Props, "text"),
		Model:     propString(n.Props, "model"),
		CreatedAt: propTime(n.Props, "created_at"),
	}, nil
}

// Investigation scopes one analysis session over one Repository.
type Investigation struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PutInvestigation writes an Investigation node. The caller supplies the
// ID (a UUID for new investigations).
func PutInvestigation(tx Tx, inv *Investigation) error {
	if inv.ID == "" || inv.RepositoryID == "" || inv.Title == "" {
		return fmt.Errorf("graph: investigation requires ID, repository ID and title")
	}
	if inv.Status == "" {
		inv.Status = InvestigationInProgress
	}
	return tx.PutNode(&Node{
		ID:     inv.ID,
		Labels: []string{LabelInvestigation},
		Props: map[string]any{
			"repo_id":     inv.RepositoryID,
			"title":       inv.Title,
			"description": inv.Description,
			"status":      inv.Status,
			"created_at":  inv.CreatedAt.Format(time.RFC3339Nano),
			"updated_at":  inv.UpdatedAt.Format(time.RFC3339Nano),
		},
	})
}

// GetInvestigation loads an Investigation by ID.
func GetInvestigation(tx Tx, id string) (*Investigation, error) {
	node, err := getLabeled(tx, id, LabelInvestigation)
	if err != nil {
		return nil, err
	}
	return investigationFromNode(node), nil
}

// Investigations lists every investigation in the store.
func Investigations(tx Tx) ([]*Investigation, error) {
	nodes, err := tx.NodesByLabel(LabelInvestigation)
	if err != nil {
		return nil, err
	}
	out := make([]*Investigation, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, investigationFromNode(n))
	}
	return out, nil
}

func investigationFromNode(n *Node) *Investigation {
	return &Investigation{
		ID:           n.ID,
		RepositoryID: propString(n.Props, "repo_id"),
		Title:        propString(n.Props, "title"),
		Description:  propString(n.Props, "description"),
		Status:       propString(n.Props, "status"),
		CreatedAt:    propTime(n.Props, "created_at"),
		UpdatedAt:    propTime(n.Props, "updated_at"),
	}
}

// Finding is the shared shape of a validated Source or Sink: a categorized
// code location with an LLM-assigned confidence.
type Finding struct {
	ID              string  `json:"id"`
	InvestigationID string  `json:"investigation_id"`
	NodeID          string  `json:"node_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Description     string  `json:"description,omitempty"`
	Confidence      float64 `json:"confidence"`
}

func (f *Finding) validate(what string) error {
	if f.ID == "" || f.InvestigationID == "" || f.NodeID == "" {
		return fmt.Errorf("graph: %s requires ID, investigation ID and node ID", what)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("graph: %s confidence %v outside [0,1]", what, f.Confidence)
	}
	return nil
}

// PutSource writes a Source finding under its investigation.
func PutSource(tx Tx, src *Finding) error {
	return putFinding(tx, src, LabelSource, RelHasSource)
}

// PutSink writes a Sink finding under its investigation.
func PutSink(tx Tx, sink *Finding) error {
	return putFinding(tx, sink, LabelSink, RelHasSink)
}

func putFinding(tx Tx, f *Finding, label, rel string) error {
	if err := f.validate(label); err != nil {
		return err
	}
	err := tx.PutNode(&Node{
		ID:     f.ID,
		Labels: []string{label},
		Props: map[string]any{
			"investigation_id": f.InvestigationID,
			"node_id":          f.NodeID,
			"name":             f.Name,
			"category":         f.Category,
			"description":      f.Description,
			"confidence":       f.Confidence,
		},
	})
	if err != nil {
		return err
	}
	if err := tx.CreateRelationship(&Relationship{From: f.InvestigationID, To: f.ID, Type: rel}); err != nil {
		return err
	}
	return tx.CreateRelationship(&Relationship{From: f.ID, To: f.NodeID, Type: RelFoundIn})
}

// SourcesOfInvestigation returns the Source findings of an investigation.
func SourcesOfInvestigation(tx Tx, invID string) ([]*Finding, error) {
	return findingsOf(tx, invID, RelHasSource)
}

// SinksOfInvestigation returns the Sink findings of an investigation.
func SinksOfInvestigation(tx Tx, invID string) ([]*Finding, error) {
	return findingsOf(tx, invID, RelHasSink)
}

func findingsOf(tx Tx, invID, rel string) ([]*Finding, error) {
	nodes, err := tx.Out(invID, rel)
	if err != nil {
		return nil, err
	}
	out := make([]*Finding, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, findingFromNode(n))
	}
	return out, nil
}

func findingFromNode(n *Node) *Finding {
	return &Finding{
		ID:              n.ID,
		InvestigationID: propString(n.Props, "investigation_id"),
		NodeID:          propString(n.Props, "node_id"),
		Name:            propString(n.Props, "name"),
		Category:        propString(n.Props, "category"),
		Description:     propString(n.Props, "description"),
		Confidence:      propFloat(n.Props, "confidence"),
	}
}

// DataFlowPath asserts a potential vulnerability: data flowing from one
// Source to one Sink within a single investigation.
type DataFlowPath struct {
	ID                string   `json:"id"`
	InvestigationID   string   `json:"investigation_id"`
	SourceID          string   `json:"source_id"`
	SinkID            string   `json:"sink_id"`
	VulnerabilityType string   `json:"vulnerability_type"`
	Impact            Impact   `json:"impact"`
	Confidence        float64  `json:"confidence"`
	Description       string   `json:"description,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// PutDataFlowPath writes a DataFlowPath and its CONNECTS edges. Both
// endpoints must exist and belong to the path's investigation; a path
// spanning two investigations is rejected before anything is written.
func PutDataFlowPath(tx Tx, p *DataFlowPath) error {
	if p.ID == "" || p.InvestigationID == "" {
		return fmt.Errorf("graph: data-flow path requires ID and investigation ID")
	}
	if !p.Impact.Valid() {
		return fmt.Errorf("graph: invalid impact %q", p.Impact)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("graph: path confidence %v outside [0,1]", p.Confidence)
	}
	for _, endpoint := range []struct{ id, label string }{
		{p.SourceID, LabelSource},
		{p.SinkID, LabelSink},
	} {
		node, err := getLabeled(tx, endpoint.id, endpoint.label)
		if err != nil {
			return fmt.Errorf("path endpoint %s: %w", endpoint.label, err)
		}
		if propString(node.Props, "investigation_id") != p.InvestigationID {
			return fmt.Errorf("graph: %s %q belongs to a different investigation", endpoint.label, endpoint.id)
		}
	}

	recs := make([]any, len(p.Recommendations))
	for i, r := range p.Recommendations {
		recs[i] = r
	}
	err := tx.PutNode(&Node{
		ID:     p.ID,
		Labels: []string{LabelDataFlowPath},
		Props: map[string]any{
			"investigation_id":   p.InvestigationID,
			"source_id":          p.SourceID,
			"sink_id":            p.SinkID,
			"vulnerability_type": p.VulnerabilityType,
			"impact":             string(p.Impact),
			"confidence":         p.Confidence,
			"description":        p.Description,
			"recommendations":    recs,
		},
	})
	if err != nil {
		return err
	}
	if err := tx.CreateRelationship(&Relationship{From: p.InvestigationID, To: p.ID, Type: RelHasDataFlowPath}); err != nil {
		return err
	}
	if err := tx.CreateRelationship(&Relationship{From: p.ID, To: p.SourceID, Type: RelConnects}); err != nil {
		return err
	}
	return tx.CreateRelationship(&Relationship{From: p.ID, To: p.SinkID, Type: RelConnects})
}

// DataFlowPathsOfInvestigation returns the data-flow paths of an
// investigation.
func DataFlowPathsOfInvestigation(tx Tx, invID string) ([]*DataFlowPath, error) {
	nodes, err := tx.Out(invID, RelHasDataFlowPath)
	if err != nil {
		return nil, err
	}
	out := make([]*DataFlowPath, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &DataFlowPath{
			ID:                n.ID,
			InvestigationID:   propString(n.Props, "investigation_id"),
			SourceID:          propString(n.Props, "source_id"),
			SinkID:            propString(n.Props, "sink_id"),
			VulnerabilityType: propString(n.Props, "vulnerability_type"),
			Impact:            Impact(propString(n.Props, "impact")),
			Confidence:        propFloat(n.Props, "confidence"),
			Description:       propString(n.Props, "description"),
			Recommendations:   propStrings(n.Props, "recommendations"),
		})
	}
	return out, nil
}

// getLabeled fetches a node and checks its label, so that callers asking
// for an Investigation with a File's ID get a clear error.
func getLabeled(tx Tx, id, label string) (*Node, error) {
	node, err := tx.GetNode(id)
	if err != nil {
		return nil, err
	}
	if !node.HasLabel(label) {
		return nil, fmt.Errorf("graph: node %q is not a %s", id, label)
	}
	return node, nil
}

// Property accessors tolerant of JSON round-tripping (numbers widen to
// float64, string slices to []any).

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func propFloat(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func propTime(props map[string]any, key string) time.Time {
	s := propString(props, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func propStrings(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
