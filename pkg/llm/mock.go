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
	"strings"
	"sync"
)

// MockProvider is a scripted Provider for tests and offline development.
//
// Replies are matched in order: rule replies (first rule whose substring
// appears in the request) win over queued replies, which are consumed
// FIFO. With nothing scripted, Complete returns a fixed placeholder.
type MockProvider struct {
	// Model is reported back in responses.
	Model string

	// Err, when set, fails every Complete call. Used to exercise
	// fail-closed handling.
	Err error

	mu       sync.Mutex
	queue    []string
	rules    []mockRule
	requests []Request
}

type mockRule struct {
	substr string
	reply  string
}

// Reply queues a completion to be returned by a later Complete call.
func (m *MockProvider) Reply(text string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, text)
	return m
}

// ReplyWhen returns text for any request whose system or user content
// contains substr.
func (m *MockProvider) ReplyWhen(substr, text string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substr: substr, reply: text})
	return m
}

// Requests returns a copy of every request seen so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.Err != nil {
		return nil, m.Err
	}

	model := m.Model
	if model == "" {
		model = "mock"
	}

	for _, rule := range m.rules {
		if strings.Contains(req.System, rule.substr) || strings.Contains(req.User, rule.substr) {
			return &Response{Text: rule.reply, Model: model}, nil
		}
	}
	if len(m.queue) > 0 {
		text := m.queue[0]
		m.queue = m.queue[1:]
		return &Response{Text: text, Model: model}, nil
	}
	return &Response{Text: "mock response", Model: model}, nil
}
