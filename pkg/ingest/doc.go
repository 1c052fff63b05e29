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

// Package ingest turns a source repository into a typed property graph.
//
// The pipeline runs asynchronously: Start validates the request, registers
// a pending status and returns an ingestion id immediately. A background
// run scans the repository (local directory or shallow git clone), parses
// each file into a structural tree, and materializes File and
// StructuralNode records in a single graph transaction per file.
// Optionally each structural node is summarized through the configured LLM
// provider.
//
// Failures are isolated per file: a file that cannot be parsed or
// summarized is recorded on the run's status and skipped, and the run
// still completes. Only scan-level I/O failures and graph store loss fail
// the whole run. Cancellation is cooperative and observed between
// per-file units of work.
package ingest
