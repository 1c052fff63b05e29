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

package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider defines the chat-completion contract the pipeline depends on.
type Provider interface {
	// Complete sends a system prompt and user context, returning the
	// completion. Implementations own their retry and timeout policy;
	// a returned error means the logical attempt failed.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier ("ollama", "openai", ...).
	Name() string
}

// Request is a single completion request.
type Request struct {
	// System is the system prompt (one of the Prompt* contracts, or a
	// caller-supplied override).
	System string `json:"system"`

	// User is the user-role context: code spans, candidate metadata,
	// aggregated findings.
	User string `json:"user"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling. Zero means provider default;
	// analysis stages use low temperatures for stable judgments.
	Temperature float64 `json:"temperature,omitempty"`
}

// Response is the provider's completion.
type Response struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// Config holds configuration for creating providers.
type Config struct {
	// Type selects the provider: "ollama", "openai", "anthropic", "mock".
	Type string `json:"type" yaml:"type"`

	// BaseURL overrides the API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey for authenticated providers. Usually left empty and read
	// from the provider's environment variable instead.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model is the default model when requests don't name one.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Timeout for a single API request.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NewProvider creates a Provider from configuration.
//
// Environment variables:
//   - OLLAMA_HOST / OLLAMA_BASE_URL: Ollama server URL
//   - OLLAMA_MODEL: default Ollama model
//   - OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL
//   - ANTHROPIC_API_KEY, ANTHROPIC_MODEL
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	switch strings.ToLower(cfg.Type) {
	case "ollama", "local", "":
		return newOllamaProvider(cfg), nil
	case "openai", "openai-compatible":
		return newOpenAIProvider(cfg), nil
	case "anthropic", "claude":
		return newAnthropicProvider(cfg), nil
	case "mock", "test":
		return &MockProvider{Model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s (supported: ollama, openai, anthropic, mock)", cfg.Type)
	}
}

// DefaultProvider creates a provider from environment variables, checking
// Ollama, then OpenAI, then Anthropic, and falling back to the mock.
func DefaultProvider() (Provider, error) {
	if os.Getenv("OLLAMA_HOST") != "" || os.Getenv("OLLAMA_BASE_URL") != "" || os.Getenv("OLLAMA_MODEL") != "" {
		return NewProvider(Config{Type: "ollama"})
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(Config{Type: "openai"})
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewProvider(Config{Type: "anthropic"})
	}
	return NewProvider(Config{Type: "mock"})
}
