// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StructuredRequest asks a provider for a single JSON object conforming to
// Schema (a JSON Schema document). This is layered on top of Chat rather
// than being a new Provider method, so every existing provider
// implementation (ollama/openai/anthropic/mock) accepts it: the schema is
// passed in ChatRequest.Options, which the ollama provider forwards as
// "format" and the openai provider as "response_format"; the anthropic and
// mock providers do not forward it. In every case the response text is
// parsed and validated against the schema's required-field list on return.
type StructuredRequest struct {
	Messages []Message
	Model    string
	Schema   map[string]any
	// SchemaName labels the schema for providers (OpenAI-compatible) that
	// require a name alongside the schema body.
	SchemaName string
}

// StructuredChat asks provider for one JSON object matching req.Schema,
// retrying once with a corrective follow-up message if the first response
// fails to parse or is missing a required field. Returns the decoded
// object as a map so callers can further unmarshal into their own structs.
func StructuredChat(ctx context.Context, provider Provider, req StructuredRequest) (map[string]any, error) {
	options := map[string]any{
		"format": req.Schema,
	}
	if req.SchemaName != "" {
		options["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.SchemaName,
				"schema": req.Schema,
			},
		}
	}

	messages := append([]Message{}, req.Messages...)
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := provider.Chat(ctx, ChatRequest{
			Messages: messages,
			Model:    req.Model,
			Options:  options,
		})
		if err != nil {
			return nil, fmt.Errorf("structured chat: %w", err)
		}

		obj, parseErr := parseAndValidate(resp.Message.Content, req.Schema)
		if parseErr == nil {
			return obj, nil
		}
		if attempt == 0 {
			messages = append(messages, resp.Message, Message{
				Role: "user",
				Content: fmt.Sprintf(
					"Your previous response was not valid JSON matching the required schema (%v). Reply again with only the corrected JSON object.",
					parseErr,
				),
			})
			continue
		}
		return nil, fmt.Errorf("structured chat: response did not match schema after retry: %w", parseErr)
	}
	return nil, fmt.Errorf("structured chat: exhausted retries")
}

func parseAndValidate(content string, schema map[string]any) (map[string]any, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	required, _ := schema["required"].([]any)
	for _, r := range required {
		key, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := obj[key]; !present {
			return nil, fmt.Errorf("missing required field %q", key)
		}
	}
	return obj, nil
}
