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
	"time"
)

// groundedSystemPrompt is the strict instruction the narrative assistant
// answers under: it may only describe the code it was actually given,
// never invent APIs, functions, or behavior that isn't present in the
// retrieved context.
const groundedSystemPrompt = `You are a code graph assistant answering questions about a specific codebase.
You are given retrieved code context (nodes, relationships, file excerpts) relevant to the question.
Answer using ONLY the provided context. Never invent code, functions, types, or behavior you were not given.
If the context doesn't contain enough information to answer, say so explicitly rather than guessing.`

// defaultAssistantTimeout bounds a single Answer call, per the external
// interfaces contract (no narrative call runs longer than 120s).
const defaultAssistantTimeout = 120 * time.Second

// Assistant generates narrative answers grounded in retrieved code
// context, using a Provider for the underlying completion.
type Assistant struct {
	Provider  Provider
	MaxTokens int
	Timeout   time.Duration
}

// NewAssistant builds an Assistant. maxTokens<=0 leaves the provider's
// own default in effect; timeout<=0 defaults to 120s.
func NewAssistant(provider Provider, maxTokens int, timeout time.Duration) *Assistant {
	if timeout <= 0 {
		timeout = defaultAssistantTimeout
	}
	return &Assistant{Provider: provider, MaxTokens: maxTokens, Timeout: timeout}
}

// Answer generates a narrative response to question, grounded in
// codeContext (typically a rendering of retrieved graph nodes, impact
// results, or traversal reports). The call is bounded by a.Timeout.
func (a *Assistant) Answer(ctx context.Context, question, codeContext string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", codeContext, question)
	resp, err := a.Provider.Chat(ctx, ChatRequest{
		Messages:  BuildChatMessages(groundedSystemPrompt, userPrompt),
		MaxTokens: a.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("narrative assistant: %w", err)
	}
	return resp.Message.Content, nil
}
