package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxorbit/callorbit/internal/observe"
	"github.com/voxorbit/callorbit/internal/telephonytools"
	"github.com/voxorbit/callorbit/pkg/provider/llm"
	"github.com/voxorbit/callorbit/pkg/types"
)

// maxToolRounds bounds how many tool-call/tool-result round trips a single
// Complete invocation will perform, guarding against a model that never
// stops calling tools. Once the budget is spent, Complete makes one more
// request without tools and returns that reply's content.
const maxToolRounds = 3

// llmAdapter implements [callsession.LLMClient] over a [llm.Provider],
// maintaining each call's conversation history and dispatching any tool
// calls the model requests against that call's telephonytools table.
type llmAdapter struct {
	provider     llm.Provider
	systemPrompt string
	tools        []telephonytools.Tool
	metrics      *observe.Metrics

	mu      sync.Mutex
	history []types.Message
}

// newLLMAdapter constructs an llmAdapter bound to one call's tool table.
func newLLMAdapter(provider llm.Provider, systemPrompt string, tools []telephonytools.Tool, metrics *observe.Metrics) *llmAdapter {
	return &llmAdapter{provider: provider, systemPrompt: systemPrompt, tools: tools, metrics: metrics}
}

// Complete implements callsession.LLMClient.
func (a *llmAdapter) Complete(ctx context.Context, callID, utterance string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, types.Message{Role: "user", Content: utterance})

	defs := make([]types.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, types.ToolDefinition{
			Name:                string(t.Definition.Name),
			Description:         t.Definition.Description,
			Parameters:          t.Definition.Parameters,
			EstimatedDurationMs: int(t.Definition.EstimatedDurationMs),
			MaxDurationMs:       int(t.Definition.MaxDurationMs),
			Idempotent:          t.Definition.Idempotent,
		})
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.complete(ctx, defs)
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			a.history = append(a.history, types.Message{Role: "assistant", Content: resp.Content})
			return resp.Content, nil
		}

		a.history = append(a.history, types.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result, toolErr := a.executeTool(ctx, call)
			if toolErr != nil {
				result = fmt.Sprintf(`{"error":%q}`, toolErr.Error())
			}
			a.history = append(a.history, types.Message{Role: "tool", Content: result, ToolCallID: call.ID})
		}
	}

	// Exhausted the tool-call budget; ask once more without offering tools so
	// the model is forced to respond in plain text.
	resp, err := a.complete(ctx, nil)
	if err != nil {
		return "", err
	}
	a.history = append(a.history, types.Message{Role: "assistant", Content: resp.Content})
	return resp.Content, nil
}

func (a *llmAdapter) complete(ctx context.Context, tools []types.ToolDefinition) (*llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Messages:     a.history,
		Tools:        tools,
		SystemPrompt: a.systemPrompt,
	})
	if a.metrics != nil {
		a.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	}
	return resp, err
}

func (a *llmAdapter) executeTool(ctx context.Context, call types.ToolCall) (string, error) {
	for _, t := range a.tools {
		if string(t.Definition.Name) == call.Name {
			result, err := t.Handler(ctx, call.Arguments)
			status := "ok"
			if err != nil {
				status = "error"
			}
			if a.metrics != nil {
				a.metrics.RecordToolCall(ctx, call.Name, status)
			}
			return result, err
		}
	}
	return "", fmt.Errorf("tool %q is not registered for this call", call.Name)
}
