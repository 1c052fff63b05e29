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
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kraklabs/ariadne/pkg/graph"
	"github.com/kraklabs/ariadne/pkg/llm"
)

// Options tunes one engine instance.
type Options struct {
	// Workers bounds concurrent analyzer calls. Defaults to 4.
	Workers int

	// MaxPairs caps cross-file source/sink pairs fed to the flow
	// analysis, ordered by combined confidence. Same-file pairs are
	// always analyzed. Defaults to 25.
	MaxPairs int
}

// Engine runs the four-stage sources-and-sinks analysis.
type Engine struct {
	store    graph.Store
	analyzer Analyzer
	narrator llm.Provider // optional, report narration only
	funnels  []Funnel
	logger   *slog.Logger
	opts     Options
}

// NewEngine builds an engine with the built-in funnels registered.
// narrator may be nil; the report then carries deterministic prose only.
func NewEngine(store graph.Store, analyzer Analyzer, narrator llm.Provider, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxPairs <= 0 {
		opts.MaxPairs = 25
	}
	return &Engine{
		store:    store,
		analyzer: analyzer,
		narrator: narrator,
		funnels:  []Funnel{KeywordFunnel{}, SummaryFunnel{}},
		logger:   logger,
		opts:     opts,
	}
}

// RegisterFunnel adds a funnel to the query stage.
func (e *Engine) RegisterFunnel(f Funnel) {
	e.funnels = append(e.funnels, f)
}

// Run executes the full analysis for one investigation. Zero candidates
// is not an error; the returned result then reports no findings. A
// failure to persist findings aborts the run and no report is produced.
func (e *Engine) Run(ctx context.Context, invID string) (*Result, error) {
	anMetrics.init()
	start := time.Now()
	defer func() { anMetrics.runDuration.Observe(time.Since(start).Seconds()) }()

	var inv *graph.Investigation
	err := e.store.View(ctx, func(tx graph.Tx) error {
		var err error
		inv, err = graph.GetInvestigation(tx, invID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load investigation: %w", err)
	}

	e.logger.Info("analysis.engine.start", "investigation_id", invID, "repo_id", inv.RepositoryID)

	// Stage 1: funnel query.
	srcCands, sinkCands, err := e.query(ctx, inv.RepositoryID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("analysis.engine.stage.query",
		"investigation_id", invID,
		"source_candidates", len(srcCands),
		"sink_candidates", len(sinkCands),
	)

	// Stage 2: analyze candidates, then pairs.
	sources := e.analyzeCandidates(ctx, invID, srcCands, e.analyzer.AnalyzeSource)
	sinks := e.analyzeCandidates(ctx, invID, sinkCands, e.analyzer.AnalyzeSink)
	paths := e.analyzeFlows(ctx, invID, sources, sinks)
	e.logger.Info("analysis.engine.stage.analyze",
		"investigation_id", invID,
		"sources", len(sources),
		"sinks", len(sinks),
		"paths", len(paths),
	)

	// Stage 3: one transactional batch write.
	now := time.Now()
	err = e.store.Update(ctx, func(tx graph.Tx) error {
		for _, s := range sources {
			if err := graph.PutSource(tx, s.Finding); err != nil {
				return err
			}
		}
		for _, s := range sinks {
			if err := graph.PutSink(tx, s.Finding); err != nil {
				return err
			}
		}
		for _, p := range paths {
			if err := graph.PutDataFlowPath(tx, p); err != nil {
				return err
			}
		}
		inv.Status = graph.InvestigationComplete
		inv.UpdatedAt = now
		return graph.PutInvestigation(tx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("persist findings: %w", err)
	}
	e.logger.Info("analysis.engine.stage.update", "investigation_id", invID,
		"written", len(sources)+len(sinks)+len(paths))

	anMetrics.sourcesFound.Add(float64(len(sources)))
	anMetrics.sinksFound.Add(float64(len(sinks)))
	anMetrics.pathsFound.Add(float64(len(paths)))

	// Stage 4: report.
	result := &Result{
		Investigation: inv,
		Sources:       findings(sources),
		Sinks:         findings(sinks),
		Paths:         paths,
		GeneratedAt:   now,
	}
	result.Narrative = e.narrate(ctx, result)
	e.logger.Info("analysis.engine.stage.report", "investigation_id", invID)
	return result, nil
}

// query runs every funnel inside one read transaction and unions the
// candidates, de-duplicated by structural node and category. A failing
// funnel is logged and skipped; a failing read transaction is fatal.
func (e *Engine) query(ctx context.Context, repoID string) (srcs, sinks []Candidate, err error) {
	err = e.store.View(ctx, func(tx graph.Tx) error {
		for _, f := range e.funnels {
			s, ferr := f.QuerySources(tx, repoID)
			if ferr != nil {
				anMetrics.funnelErrors.Inc()
				e.logger.Warn("analysis.engine.funnel.error", "funnel", f.Name(), "kind", "sources", "err", ferr)
			} else {
				srcs = append(srcs, s...)
			}

			s, ferr = f.QuerySinks(tx, repoID)
			if ferr != nil {
				anMetrics.funnelErrors.Inc()
				e.logger.Warn("analysis.engine.funnel.error", "funnel", f.Name(), "kind", "sinks", "err", ferr)
			} else {
				sinks = append(sinks, s...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("query candidates: %w", err)
	}
	return dedupe(srcs), dedupe(sinks), nil
}

// dedupe keeps the first candidate per (node, category) pair and orders
// the result deterministically.
func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := c.Node.ID + "\x00" + c.Category
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Node.Name != out[j].Node.Name {
			return out[i].Node.Name < out[j].Node.Name
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// analyzeCandidates validates candidates concurrently, bounded by the
// worker semaphore. Analyzer errors drop the candidate.
func (e *Engine) analyzeCandidates(ctx context.Context, invID string, cands []Candidate, judge func(context.Context, Candidate) (*Verdict, error)) []Endpoint {
	sem := semaphore.NewWeighted(int64(e.opts.Workers))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var accepted []Endpoint

	for _, c := range cands {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			anMetrics.analyzeCalls.Inc()
			v, err := judge(gctx, c)
			if err != nil {
				anMetrics.analyzeErrors.Inc()
				e.logger.Warn("analysis.engine.analyze.error", "investigation_id", invID, "node", c.Node.Name, "err", err)
				return nil
			}
			if v == nil {
				return nil
			}

			mu.Lock()
			accepted = append(accepted, Endpoint{
				Finding: &graph.Finding{
					ID:              uuid.NewString(),
					InvestigationID: invID,
					NodeID:          c.Node.ID,
					Name:            v.Name,
					Category:        v.Category,
					Description:     v.Description,
					Confidence:      v.Confidence,
				},
				Node:     c.Node,
				FilePath: c.FilePath,
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].FilePath != accepted[j].FilePath {
			return accepted[i].FilePath < accepted[j].FilePath
		}
		return accepted[i].Finding.Name < accepted[j].Finding.Name
	})
	return accepted
}

// pair is one source/sink combination scheduled for flow analysis.
type pair struct {
	source, sink Endpoint
}

// buildPairs selects the source/sink combinations worth a flow analysis:
// every same-file pair, plus the best cross-file pairs by combined
// confidence up to the cap.
func buildPairs(sources, sinks []Endpoint, maxCross int) []pair {
	var same, cross []pair
	for _, src := range sources {
		for _, snk := range sinks {
			if src.Finding.NodeID == snk.Finding.NodeID {
				continue
			}
			p := pair{source: src, sink: snk}
			if src.FilePath == snk.FilePath {
				same = append(same, p)
			} else {
				cross = append(cross, p)
			}
		}
	}
	sort.SliceStable(cross, func(i, j int) bool {
		ci := cross[i].source.Finding.Confidence + cross[i].sink.Finding.Confidence
		cj := cross[j].source.Finding.Confidence + cross[j].sink.Finding.Confidence
		return ci > cj
	})
	if len(cross) > maxCross {
		cross = cross[:maxCross]
	}
	return append(same, cross...)
}

// analyzeFlows validates source/sink pairs concurrently and builds the
// accepted DataFlowPath records.
func (e *Engine) analyzeFlows(ctx context.Context, invID string, sources, sinks []Endpoint) []*graph.DataFlowPath {
	pairs := buildPairs(sources, sinks, e.opts.MaxPairs)
	if len(pairs) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(int64(e.opts.Workers))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var paths []*graph.DataFlowPath

	for _, p := range pairs {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			anMetrics.analyzeCalls.Inc()
			v, err := e.analyzer.AnalyzeDataFlow(gctx, p.source, p.sink)
			if err != nil {
				anMetrics.analyzeErrors.Inc()
				e.logger.Warn("analysis.engine.flow.error",
					"investigation_id", invID,
					"source", p.source.Finding.Name,
					"sink", p.sink.Finding.Name,
					"err", err,
				)
				return nil
			}
			if v == nil {
				return nil
			}

			mu.Lock()
			paths = append(paths, &graph.DataFlowPath{
				ID:                uuid.NewString(),
				InvestigationID:   invID,
				SourceID:          p.source.Finding.ID,
				SinkID:            p.sink.Finding.ID,
				VulnerabilityType: v.Vulnerability,
				Impact:            graph.Impact(v.Impact),
				Confidence:        v.Confidence,
				Description:       v.Description,
				Recommendations:   recommendations(p.source.Finding, p.sink.Finding),
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Confidence != paths[j].Confidence {
			return paths[i].Confidence > paths[j].Confidence
		}
		return paths[i].VulnerabilityType < paths[j].VulnerabilityType
	})
	return paths
}

// recommendations derives deterministic remediation hints from the pair's
// categories.
func recommendations(source, sink *graph.Finding) []string {
	recs := []string{
		fmt.Sprintf("Validate and sanitize data from %s (%s) before it reaches %s (%s).",
			source.Name, source.Category, sink.Name, sink.Category),
	}
	switch sink.Category {
	case "SQL Execution":
		recs = append(recs, "Use parameterized queries instead of string concatenation.")
	case "Command Execution":
		recs = append(recs, "Avoid passing untrusted data to shell commands; use an allow-list.")
	case "HTTP Response":
		recs = append(recs, "Encode output for the response context to prevent injection.")
	case "Logging":
		recs = append(recs, "Redact sensitive fields before logging.")
	case "API Request":
		recs = append(recs, "Review what data is shared with the downstream service.")
	}
	return recs
}

// narrate asks the narrator for an executive summary. Any failure falls
// back to the deterministic summary line.
func (e *Engine) narrate(ctx context.Context, r *Result) string {
	if e.narrator == nil {
		return r.summaryLine()
	}

	resp, err := e.narrator.Complete(ctx, llm.Request{
		System: llm.PromptSummarizeResults,
		User:   r.narrationPrompt(),
	})
	if err != nil || resp.Text == "" {
		if err != nil {
			e.logger.Warn("analysis.engine.narrate.error", "err", err)
		}
		return r.summaryLine()
	}
	return resp.Text
}

func findings(eps []Endpoint) []*graph.Finding {
	out := make([]*graph.Finding, len(eps))
	for i, ep := range eps {
		out[i] = ep.Finding
	}
	return out
}
