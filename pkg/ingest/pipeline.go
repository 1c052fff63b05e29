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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/ariadne/pkg/graph"
)

// Source identifies what to ingest. Exactly one field must be set.
type Source struct {
	Path string // local directory
	URL  string // git URL, shallow-cloned
}

func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// Options tunes one ingestion run.
type Options struct {
	// Workers bounds the file-level worker pool. Defaults to 4.
	Workers int

	// ExcludeGlobs are paths to skip during the scan.
	ExcludeGlobs []string

	// MaxFileSize caps file size in bytes; 0 means no cap.
	MaxFileSize int64

	// ParserMode selects the parser implementation. Defaults to auto.
	ParserMode ParserMode

	// MaxCodeBytes caps stored code text per structural node.
	MaxCodeBytes int

	// Summarize enables LLM summaries per structural node. Requires the
	// pipeline to have been built with a provider.
	Summarize bool
}

// Pipeline runs asynchronous ingestions against one graph store.
type Pipeline struct {
	store      graph.Store
	scanner    *Scanner
	summarizer *Summarizer
	logger     *slog.Logger
	reg        *registry
	wg         sync.WaitGroup
}

// NewPipeline creates an ingestion pipeline. summarizer may be nil, in
// which case Options.Summarize is ignored.
func NewPipeline(store graph.Store, summarizer *Summarizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		scanner:    NewScanner(logger),
		summarizer: summarizer,
		logger:     logger,
		reg:        newRegistry(),
	}
}

// Start validates the request synchronously and launches the run in the
// background, returning its ingestion id. Validation failures return an
// error and register nothing.
func (p *Pipeline) Start(ctx context.Context, src Source, opts Options) (string, error) {
	if (src.Path == "") == (src.URL == "") {
		return "", fmt.Errorf("ingest: exactly one of path or URL must be set")
	}
	if src.Path != "" {
		info, err := os.Stat(src.Path)
		if err != nil {
			return "", fmt.Errorf("ingest: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("ingest: %s is not a directory", src.Path)
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	ingMetrics.init()
	ingMetrics.runsStarted.Inc()

	id := uuid.NewString()

	// The run outlives Start's caller; it is bound to its own context and
	// stopped through Cancel.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.reg.add(id, src.String(), cancel)

	p.logger.Info("ingest.pipeline.start", "ingestion_id", id, "source", src.String(), "workers", opts.Workers)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(runCtx, cancel, id, src, opts)
	}()

	return id, nil
}

// Status returns a snapshot of the run, with elapsed time computed now.
func (p *Pipeline) Status(id string) (Status, error) {
	return p.reg.get(id)
}

// Statuses lists every tracked run, oldest first.
func (p *Pipeline) Statuses() []Status {
	return p.reg.list()
}

// Cancel requests cooperative cancellation of a run. The run stops after
// the per-file units currently in flight.
func (p *Pipeline) Cancel(id string) error {
	if err := p.reg.requestCancel(id); err != nil {
		return err
	}
	ingMetrics.init()
	ingMetrics.runsCancelled.Inc()
	return nil
}

// Wait blocks until every launched run has reached a terminal state.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close waits for running ingestions and cleans up scanner temp dirs.
func (p *Pipeline) Close() error {
	p.wg.Wait()
	return p.scanner.Close()
}

// run drives one ingestion to a terminal state. cancel stops the run's
// own context; the fatal path uses it to unblock the job feed.
func (p *Pipeline) run(ctx context.Context, cancel context.CancelFunc, id string, src Source, opts Options) {
	start := time.Now()
	defer func() {
		ingMetrics.runDuration.Observe(time.Since(start).Seconds())
	}()

	p.reg.update(id, func(s *Status) { s.State = StateRunning })

	scanStart := time.Now()
	scan, err := p.scanner.Scan(ctx, src, opts.ExcludeGlobs, opts.MaxFileSize)
	ingMetrics.scanDuration.Observe(time.Since(scanStart).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			p.finishRun(id, StateCancelled, "")
			return
		}
		p.finishRun(id, StateFailed, err.Error())
		return
	}

	// Deterministic processing order regardless of walk order.
	sort.Slice(scan.Files, func(i, j int) bool { return scan.Files[i].Path < scan.Files[j].Path })

	repo := &graph.Repository{Name: scan.Name, Source: src.String(), IngestedAt: time.Now()}
	err = p.store.Update(ctx, func(tx graph.Tx) error {
		return graph.PutRepository(tx, repo)
	})
	if err != nil {
		p.finishRun(id, StateFailed, fmt.Sprintf("create repository: %v", err))
		return
	}

	ingMetrics.filesScanned.Add(float64(len(scan.Files)))
	p.reg.update(id, func(s *Status) {
		s.FilesScanned = len(scan.Files)
		s.RepositoryID = repo.ID
	})

	parser := NewCodeParser(opts.ParserMode, opts.MaxCodeBytes, p.logger)
	summarize := opts.Summarize && p.summarizer != nil

	jobs := make(chan SourceFile)
	var fatalOnce sync.Once
	var fatalErr error

	var workers sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for file := range jobs {
				if ctx.Err() != nil {
					return
				}
				if err := p.processFile(ctx, id, repo.ID, file, parser, summarize); err != nil {
					if ctx.Err() != nil {
						// The in-flight file was cut short by
						// cancellation; the run ends cancelled, not
						// failed.
						return
					}
					// Store loss is the one per-file error that dooms the
					// whole run. Cancelling the run context unblocks the
					// feed below and drains the other workers.
					fatalOnce.Do(func() {
						fatalErr = err
						p.logger.Error("ingest.pipeline.fatal", "ingestion_id", id, "err", err)
						cancel()
					})
					return
				}
			}
		}()
	}

feed:
	for _, file := range scan.Files {
		select {
		case jobs <- file:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	workers.Wait()

	switch {
	case fatalErr != nil:
		p.finishRun(id, StateFailed, fatalErr.Error())
	case ctx.Err() != nil:
		p.finishRun(id, StateCancelled, "")
	default:
		p.finishRun(id, StateCompleted, "")
	}
}

func (p *Pipeline) finishRun(id string, state State, fatal string) {
	p.reg.finish(id, state, fatal)
	s, _ := p.reg.get(id)
	p.logger.Info("ingest.pipeline.finish",
		"ingestion_id", id,
		"state", string(state),
		"files_scanned", s.FilesScanned,
		"files_parsed", s.FilesParsed,
		"files_failed", s.FilesFailed,
		"nodes_created", s.NodesCreated,
		"err", fatal,
	)
}

// processFile runs one file through parse, materialize and summarize.
// Per-file failures are recorded on the status and return nil; only graph
// store loss returns an error.
func (p *Pipeline) processFile(ctx context.Context, id, repoID string, file SourceFile, parser CodeParser, summarize bool) error {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		p.recordFileError(id, file.Path, "parse", err)
		return nil
	}

	parseStart := time.Now()
	parse, err := parser.Parse(file, content)
	ingMetrics.parseDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		p.recordFileError(id, file.Path, "parse", err)
		return nil
	}

	nodes, targets, err := p.materializeFile(ctx, repoID, file, parse)
	if err != nil {
		if errors.Is(err, graph.ErrClosed) || ctx.Err() != nil {
			return err
		}
		p.recordFileError(id, file.Path, "materialize", err)
		return nil
	}

	ingMetrics.filesParsed.Inc()
	ingMetrics.nodesCreated.Add(float64(nodes))
	p.reg.update(id, func(s *Status) {
		s.FilesParsed++
		s.NodesCreated += nodes
	})
	p.logger.Debug("ingest.pipeline.file", "ingestion_id", id, "path", file.Path, "nodes", nodes)

	if summarize {
		if err := p.summarizeNodes(ctx, id, file.Path, targets); err != nil {
			return err
		}
	}
	return nil
}

// summaryTarget pairs a materialized node id with its parsed structure
// and the name of its enclosing structure, if any.
type summaryTarget struct {
	nodeID string
	parent string
	st     Structure
}

// materializeFile writes the File node and its structural tree in one
// transaction, so a half-parsed file never becomes visible.
func (p *Pipeline) materializeFile(ctx context.Context, repoID string, file SourceFile, parse *FileParse) (int, []summaryTarget, error) {
	nodes := 0
	var targets []summaryTarget

	err := p.store.Update(ctx, func(tx graph.Tx) error {
		f := &graph.File{
			RepositoryID: repoID,
			Path:         file.Path,
			Language:     file.Language,
			Size:         file.Size,
		}
		if err := graph.PutFile(tx, f); err != nil {
			return err
		}

		var put func(parentID, parentName string, structures []Structure) error
		put = func(parentID, parentName string, structures []Structure) error {
			for _, st := range structures {
				sn := &graph.StructuralNode{
					RepositoryID: repoID,
					FileID:       f.ID,
					ParentID:     parentID,
					Name:         st.Name,
					Kind:         st.Kind,
					Signature:    st.Signature,
					StartLine:    st.StartLine,
					EndLine:      st.EndLine,
					Code:         st.Code,
				}
				if err := graph.PutStructuralNode(tx, sn); err != nil {
					return err
				}
				nodes++
				targets = append(targets, summaryTarget{nodeID: sn.ID, parent: parentName, st: st})
				if err := put(sn.ID, st.Name, st.Children); err != nil {
					return err
				}
			}
			return nil
		}
		return put("", "", parse.Structures)
	})
	if err != nil {
		return 0, nil, err
	}
	return nodes, targets, nil
}

// summarizeNodes generates and upserts summaries for a file's nodes.
// Failures are per-node and non-fatal except for store loss.
func (p *Pipeline) summarizeNodes(ctx context.Context, id, path string, targets []summaryTarget) error {
	for _, t := range targets {
		if ctx.Err() != nil {
			return nil
		}

		sumStart := time.Now()
		text, model, err := p.summarizer.Summarize(ctx, path, t.parent, t.st)
		ingMetrics.summarizeDuration.Observe(time.Since(sumStart).Seconds())
		if err != nil {
			ingMetrics.summariesFail.Inc()
			p.recordFileError(id, path, "summarize", err)
			continue
		}

		err = p.store.Update(ctx, func(tx graph.Tx) error {
			return graph.PutSummary(tx, &graph.Summary{
				NodeID:    t.nodeID,
				Text:      text,
				Model:     model,
				CreatedAt: time.Now(),
			})
		})
		if err != nil {
			if errors.Is(err, graph.ErrClosed) {
				return err
			}
			ingMetrics.summariesFail.Inc()
			p.recordFileError(id, path, "summarize", err)
			continue
		}

		ingMetrics.summariesOK.Inc()
		p.reg.update(id, func(s *Status) { s.Summaries++ })
	}
	return nil
}

func (p *Pipeline) recordFileError(id, path, stage string, err error) {
	// Summarize failures leave the file itself intact, so they do not
	// count as failed files.
	failedFile := stage != "summarize"
	if failedFile {
		ingMetrics.filesFailed.Inc()
	}
	p.logger.Warn("ingest.pipeline.file.error", "ingestion_id", id, "path", path, "stage", stage, "err", err)
	p.reg.update(id, func(s *Status) {
		if failedFile {
			s.FilesFailed++
		}
		s.Errors = append(s.Errors, FileError{Path: path, Stage: stage, Message: err.Error()})
	})
}
