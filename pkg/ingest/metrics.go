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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngest holds Prometheus metrics for the ingestion subsystem.
type metricsIngest struct {
	once sync.Once

	filesScanned  prometheus.Counter
	filesParsed   prometheus.Counter
	filesFailed   prometheus.Counter
	nodesCreated  prometheus.Counter
	summariesOK   prometheus.Counter
	summariesFail prometheus.Counter
	runsStarted   prometheus.Counter
	runsCancelled prometheus.Counter

	scanDuration      prometheus.Histogram
	parseDuration     prometheus.Histogram
	summarizeDuration prometheus.Histogram
	runDuration       prometheus.Histogram
}

var ingMetrics metricsIngest

func (m *metricsIngest) init() {
	m.once.Do(func() {
		m.filesScanned = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_files_scanned_total", Help: "Files selected by the scanner"})
		m.filesParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_files_parsed_total", Help: "Files parsed and materialized"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_files_failed_total", Help: "Files that failed parse or materialization"})
		m.nodesCreated = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_nodes_created_total", Help: "Structural nodes written to the graph"})
		m.summariesOK = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_summaries_total", Help: "Summaries generated"})
		m.summariesFail = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_summary_errors_total", Help: "Summary generation failures"})
		m.runsStarted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_runs_total", Help: "Ingestion runs started"})
		m.runsCancelled = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_ingest_runs_cancelled_total", Help: "Ingestion runs cancelled"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ariadne_ingest_scan_seconds", Help: "Repository scan duration", Buckets: buckets})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ariadne_ingest_parse_seconds", Help: "Per-file parse duration", Buckets: buckets})
		m.summarizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ariadne_ingest_summarize_seconds", Help: "Per-node summarize duration", Buckets: buckets})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ariadne_ingest_run_seconds", Help: "Total ingestion run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesScanned, m.filesParsed, m.filesFailed, m.nodesCreated,
			m.summariesOK, m.summariesFail, m.runsStarted, m.runsCancelled,
			m.scanDuration, m.parseDuration, m.summarizeDuration, m.runDuration,
		)
	})
}
