// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"testing"
)

func TestStructuredChatParsesValidJSON(t *testing.T) {
	provider := &MockProvider{
		ChatFunc: func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Message: Message{Role: "assistant", Content: `{"taxonomy": "UTILITY"}`},
				Model:   "mock-model",
				Done:    true,
			}, nil
		},
	}
	schema := map[string]any{
		"type":     "object",
		"required": []any{"taxonomy"},
	}

	obj, err := StructuredChat(context.Background(), provider, StructuredRequest{
		Messages: []Message{{Role: "user", Content: "classify this function"}},
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj == nil {
		t.Fatalf("expected a decoded object")
	}
	if obj["taxonomy"] != "UTILITY" {
		t.Fatalf("unexpected taxonomy: %v", obj["taxonomy"])
	}
}

func TestStructuredChatRetriesOnMissingField(t *testing.T) {
	calls := 0
	provider := &MockProvider{
		ChatFunc: func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			calls++
			if calls == 1 {
				return &ChatResponse{Message: Message{Role: "assistant", Content: `{"confidence": 0.5}`}}, nil
			}
			return &ChatResponse{Message: Message{Role: "assistant", Content: `{"taxonomy": "UTILITY"}`}}, nil
		},
	}
	schema := map[string]any{"type": "object", "required": []any{"taxonomy"}}

	obj, err := StructuredChat(context.Background(), provider, StructuredRequest{
		Messages: []Message{{Role: "user", Content: "classify"}},
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a retry, got %d calls", calls)
	}
	if obj["taxonomy"] != "UTILITY" {
		t.Fatalf("unexpected result: %v", obj)
	}
}
