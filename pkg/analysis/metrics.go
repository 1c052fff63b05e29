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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsAnalysis holds Prometheus metrics for the analysis engine.
type metricsAnalysis struct {
	once sync.Once

	sourcesFound  prometheus.Counter
	sinksFound    prometheus.Counter
	pathsFound    prometheus.Counter
	funnelErrors  prometheus.Counter
	analyzeCalls  prometheus.Counter
	analyzeErrors prometheus.Counter

	runDuration prometheus.Histogram
}

var anMetrics metricsAnalysis

func (m *metricsAnalysis) init() {
	m.once.Do(func() {
		m.sourcesFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_sources_total", Help: "Validated data sources persisted"})
		m.sinksFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_sinks_total", Help: "Validated data sinks persisted"})
		m.pathsFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_paths_total", Help: "Data-flow paths persisted"})
		m.funnelErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_funnel_errors_total", Help: "Funnel query failures skipped"})
		m.analyzeCalls = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_analyze_calls_total", Help: "Analyzer invocations"})
		m.analyzeErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "ariadne_analysis_analyze_errors_total", Help: "Analyzer invocations that failed"})

		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ariadne_analysis_run_seconds",
			Help:    "Total analysis run duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		})

		prometheus.MustRegister(
			m.sourcesFound, m.sinksFound, m.pathsFound,
			m.funnelErrors, m.analyzeCalls, m.analyzeErrors,
			m.runDuration,
		)
	})
}
