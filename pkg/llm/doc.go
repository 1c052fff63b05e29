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

// Package llm is the client adapter for the LLM service Ariadne uses as an
// analysis oracle.
//
// The pipeline and the analysis engine only ever see the Provider
// interface: a system prompt plus user context in, completion text out.
// Retries, timeouts and authentication live inside the providers; callers
// treat every Complete call as one logical attempt and convert failures
// into their own non-fatal handling.
//
// # Providers
//
// Four implementations ship with Ariadne:
//
//   - ollama: local Ollama server (OLLAMA_HOST, default localhost:11434)
//   - openai: OpenAI or any OpenAI-compatible endpoint (OPENAI_API_KEY)
//   - anthropic: Anthropic messages API (ANTHROPIC_API_KEY)
//   - mock: scripted replies for tests and offline development
//
// Select one via NewProvider or let DefaultProvider pick from the
// environment:
//
//	provider, err := llm.DefaultProvider()
//	if err != nil { ... }
//	resp, err := provider.Complete(ctx, llm.Request{
//	    System: llm.PromptIdentifySources,
//	    User:   promptBody,
//	})
//
// # Prompt contracts
//
// prompts.go holds the four system prompts the analysis stages use
// (identify sources, identify sinks, analyze data flow, summarize
// results) plus the ingestion-time code summarization prompt. They are
// plain exported strings so deployments can swap them per stage.
package llm
