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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDispatch(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
	}{
		{"ollama", Config{Type: "ollama"}, "ollama"},
		{"local alias", Config{Type: "local"}, "ollama"},
		{"empty defaults to ollama", Config{}, "ollama"},
		{"openai", Config{Type: "openai", APIKey: "sk-test"}, "openai"},
		{"anthropic", Config{Type: "anthropic", APIKey: "sk-ant"}, "anthropic"},
		{"mock", Config{Type: "mock"}, "mock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProviderUnknownType(t *testing.T) {
	_, err := NewProvider(Config{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestMockProviderScripting(t *testing.T) {
	m := &MockProvider{Model: "test-model"}
	m.Reply("first").Reply("second")
	m.ReplyWhen("data source", `{"is_match": false}`)

	ctx := context.Background()

	resp, err := m.Complete(ctx, Request{User: "is this a data source?"})
	require.NoError(t, err)
	assert.Equal(t, `{"is_match": false}`, resp.Text)
	assert.Equal(t, "test-model", resp.Model)

	resp, err = m.Complete(ctx, Request{User: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = m.Complete(ctx, Request{User: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	resp, err = m.Complete(ctx, Request{User: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Text)

	assert.Len(t, m.Requests(), 4)
}

func TestMockProviderError(t *testing.T) {
	wantErr := errors.New("provider down")
	m := &MockProvider{Err: wantErr}
	_, err := m.Complete(context.Background(), Request{User: "x"})
	assert.ErrorIs(t, err, wantErr)
}

func TestOllamaProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)

		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3",
			"message":           map[string]any{"role": "assistant", "content": "hello back"},
			"prompt_eval_count": 12,
			"eval_count":        5,
		})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Type: "ollama", BaseURL: srv.URL, Model: "llama3"})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{System: "be brief", User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Text)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 5, resp.OutputTokens)
}

func TestAnthropicProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		require.NotEmpty(t, r.Header.Get("anthropic-version"))

		json.NewEncoder(w).Encode(map[string]any{
			"model": "claude-test",
			"content": []map[string]any{
				{"type": "text", "text": "part one "},
				{"type": "text", "text": "part two"},
			},
			"usage": map[string]any{"input_tokens": 7, "output_tokens": 3},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Type: "anthropic", BaseURL: srv.URL, APIKey: "sk-ant"})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Text)
	assert.Equal(t, 7, resp.PromptTokens)
	assert.Equal(t, 3, resp.OutputTokens)
}

func TestDecodeJSON(t *testing.T) {
	type verdict struct {
		IsMatch    bool    `json:"is_match"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{"bare object", `{"is_match": true, "confidence": 0.9}`, true},
		{"code fence", "```json\n{\"is_match\": true, \"confidence\": 0.9}\n```", true},
		{"preamble", `Sure, here is the verdict: {"is_match": true, "confidence": 0.9} hope that helps`, true},
		{"nested braces in string", `{"is_match": true, "confidence": 0.9, "description": "uses {curly} syntax"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v verdict
			require.NoError(t, DecodeJSON(tt.text, &v))
			assert.Equal(t, tt.match, v.IsMatch)
			assert.InDelta(t, 0.9, v.Confidence, 1e-9)
		})
	}
}

func TestDecodeJSONNoObject(t *testing.T) {
	var v struct{}
	err := DecodeJSON("I cannot answer that.", &v)
	require.Error(t, err)
}

func TestDefaultProviderFallsBackToMock(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	p, err := DefaultProvider()
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())
}

func TestDecodeJSONVerdictExtra(t *testing.T) {
	// Extra keys the prompt contracts allow must not break decoding.
	var v struct {
		IsMatch bool   `json:"is_match"`
		Impact  string `json:"impact"`
	}
	text := `{"is_match": true, "impact": "high", "vulnerability": "Information Disclosure", "confidence": 0.8}`
	require.NoError(t, DecodeJSON(text, &v))
	assert.True(t, v.IsMatch)
	assert.Equal(t, "high", v.Impact)
}
