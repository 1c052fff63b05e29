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

// Package analysis runs the staged sources-and-sinks engine over an
// ingested repository.
//
// A run moves through four stages. Query: registered funnels walk the
// graph and nominate candidate structural nodes cheaply. Analyze: an
// analyzer (normally LLM-backed) validates each candidate and each
// plausible source/sink pair, producing confidence-scored findings.
// Update: all findings are written under the Investigation in one
// transaction. Report: the result is rendered with deterministic counts
// and an optional LLM narration.
//
// Funnel and analyzer failures degrade rather than abort: a failing
// funnel is skipped, a failing analyzer call drops its candidate (fail
// closed). Only the transactional update is all-or-nothing.
package analysis
