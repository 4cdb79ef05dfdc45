package app

import (
	"context"
	"testing"

	"github.com/voxorbit/callorbit/internal/telephonytools"
	"github.com/voxorbit/callorbit/pkg/provider/llm"
	"github.com/voxorbit/callorbit/pkg/types"
)

type scriptedLLM struct {
	responses []*llm.CompletionResponse
	calls     int
}

func (s *scriptedLLM) StreamCompletion(context.Context, llm.CompletionRequest) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func (s *scriptedLLM) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

func (s *scriptedLLM) CountTokens([]types.Message) (int, error) { return 0, nil }
func (s *scriptedLLM) Capabilities() types.ModelCapabilities {
	return types.ModelCapabilities{SupportsToolCalling: true}
}

func TestLLMAdapter_PlainReply(t *testing.T) {
	provider := &scriptedLLM{responses: []*llm.CompletionResponse{
		{Content: "hello there"},
	}}
	a := newLLMAdapter(provider, "system prompt", nil, nil)
	reply, err := a.Complete(context.Background(), "call-1", "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "hello there" {
		t.Errorf("reply = %q, want %q", reply, "hello there")
	}
}

func TestLLMAdapter_ExecutesToolThenReplies(t *testing.T) {
	called := false
	tool := telephonytools.Tool{
		Definition: telephonytools.Definition{Name: telephonytools.ToolConfirmIdentity},
		Handler: func(context.Context, string) (string, error) {
			called = true
			return `{"ok":true}`, nil
		},
	}
	provider := &scriptedLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []types.ToolCall{{ID: "t1", Name: string(telephonytools.ToolConfirmIdentity), Arguments: "{}"}}},
		{Content: "identity confirmed"},
	}}
	a := newLLMAdapter(provider, "", []telephonytools.Tool{tool}, nil)
	reply, err := a.Complete(context.Background(), "call-1", "my pin is 1234")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !called {
		t.Fatal("expected tool handler to be invoked")
	}
	if reply != "identity confirmed" {
		t.Errorf("reply = %q, want %q", reply, "identity confirmed")
	}
}

func TestLLMAdapter_UnknownToolReturnsError(t *testing.T) {
	provider := &scriptedLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []types.ToolCall{{ID: "t1", Name: "not_registered", Arguments: "{}"}}},
		{Content: "fallback reply"},
	}}
	a := newLLMAdapter(provider, "", nil, nil)
	reply, err := a.Complete(context.Background(), "call-1", "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "fallback reply" {
		t.Errorf("reply = %q, want %q", reply, "fallback reply")
	}
}
