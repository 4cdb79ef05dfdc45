// Package telephonytools registers the fixed set of call-control functions
// the LLM may invoke as tools, dispatched in-process by name: identity
// confirmation, handoff to a human agent, digit collection (single profile
// or grouped plan), and disclosure playback.
// Tools backed by an optional-feature flag are omitted from the table
// entirely when the call's Policy disables them, rather than registered
// and rejected at call time.
package telephonytools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxorbit/callorbit/internal/digitengine"
)

// Name identifies one of the fixed telephony tools.
type Name string

// The complete, fixed tool set. No other tool names are ever registered.
const (
	ToolConfirmIdentity       Name = "confirm_identity"
	ToolRouteToAgent          Name = "route_to_agent"
	ToolCollectDigits         Name = "collect_digits"
	ToolCollectMultipleDigits Name = "collect_multiple_digits"
	ToolPlayDisclosure        Name = "play_disclosure"
)

// Definition is a tool's LLM-facing schema, independent of any specific
// MCP transport.
type Definition struct {
	Name                Name
	Description         string
	Parameters          map[string]any
	EstimatedDurationMs int64
	MaxDurationMs       int64
	Idempotent          bool
}

// Tool pairs a Definition with the handler invoked when the LLM calls it.
// Handler receives JSON-encoded arguments and returns a JSON-encoded
// result string.
type Tool struct {
	Definition  Definition
	Handler     func(ctx context.Context, args string) (string, error)
	DeclaredP50 int64
	DeclaredMax int64
}

// Policy gates which optional tools are registered for one call.
type Policy struct {
	AllowTransfer        bool
	AllowDigitCollection bool
	AllowDisclosure      bool
}

// Deps are the call-bound collaborators each tool handler dispatches to.
type Deps struct {
	ConfirmIdentity       func(ctx context.Context, callID string, confirmed bool, method string) error
	RouteToAgent          func(ctx context.Context, callID, reason string) error
	CollectDigits         func(ctx context.Context, callID string, args digitengine.RequestDigitCollectionArgs) error
	CollectMultipleDigits func(ctx context.Context, callID string, args digitengine.RequestDigitCollectionPlanArgs) error
	PlayDisclosure        func(ctx context.Context, callID, text string) error
}

// BuildTable returns the tools available for callID under policy. Tools
// gated by a disabled policy flag are simply absent, never registered
// and then rejected.
func BuildTable(callID string, deps Deps, policy Policy) []Tool {
	table := []Tool{confirmIdentityTool(callID, deps)}

	if policy.AllowTransfer {
		table = append(table, routeToAgentTool(callID, deps))
	}
	if policy.AllowDigitCollection {
		table = append(table, collectDigitsTool(callID, deps), collectMultipleDigitsTool(callID, deps))
	}
	if policy.AllowDisclosure {
		table = append(table, playDisclosureTool(callID, deps))
	}
	return table
}

type confirmIdentityArgs struct {
	Confirmed bool   `json:"confirmed"`
	Method    string `json:"method"`
}

func confirmIdentityTool(callID string, deps Deps) Tool {
	return Tool{
		Definition: Definition{
			Name:        ToolConfirmIdentity,
			Description: "Record whether the caller's identity has been confirmed and by what method (e.g. date of birth, last four of SSN).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"confirmed": map[string]any{"type": "boolean", "description": "Whether identity was confirmed."},
					"method":    map[string]any{"type": "string", "description": "How identity was confirmed."},
				},
				"required": []string{"confirmed"},
			},
			EstimatedDurationMs: 5,
			MaxDurationMs:       50,
			Idempotent:          true,
		},
		Handler: func(ctx context.Context, raw string) (string, error) {
			var a confirmIdentityArgs
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return "", fmt.Errorf("telephonytools: confirm_identity: %w", err)
			}
			if deps.ConfirmIdentity == nil {
				return "", fmt.Errorf("telephonytools: confirm_identity: not wired")
			}
			if err := deps.ConfirmIdentity(ctx, callID, a.Confirmed, a.Method); err != nil {
				return "", err
			}
			return `{"ok":true}`, nil
		},
		DeclaredP50: 5,
		DeclaredMax: 50,
	}
}

type routeToAgentArgs struct {
	Reason string `json:"reason"`
}

func routeToAgentTool(callID string, deps Deps) Tool {
	return Tool{
		Definition: Definition{
			Name:        ToolRouteToAgent,
			Description: "Hand this call off to a human agent. Use when the caller asks for a person, or the situation exceeds what this assistant should resolve.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason": map[string]any{"type": "string", "description": "Why the call is being handed off."},
				},
				"required": []string{"reason"},
			},
			EstimatedDurationMs: 50,
			MaxDurationMs:       500,
		},
		Handler: func(ctx context.Context, raw string) (string, error) {
			var a routeToAgentArgs
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return "", fmt.Errorf("telephonytools: route_to_agent: %w", err)
			}
			if deps.RouteToAgent == nil {
				return "", fmt.Errorf("telephonytools: route_to_agent: not wired")
			}
			if err := deps.RouteToAgent(ctx, callID, a.Reason); err != nil {
				return "", err
			}
			return `{"ok":true}`, nil
		},
		DeclaredP50: 50,
		DeclaredMax: 500,
	}
}

type collectDigitsArgs struct {
	Profile string `json:"profile"`
	Prompt  string `json:"prompt"`
}

func collectDigitsTool(callID string, deps Deps) Tool {
	return Tool{
		Definition: Definition{
			Name:        ToolCollectDigits,
			Description: "Begin collecting a single piece of sensitive or numeric information via DTMF (e.g. a PIN, a ZIP code, an amount).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"profile": map[string]any{"type": "string", "description": "The kind of value to collect (e.g. pin, zip, amount, verification)."},
					"prompt":  map[string]any{"type": "string", "description": "The prompt to speak to the caller."},
				},
				"required": []string{"prompt"},
			},
			EstimatedDurationMs: 10,
			MaxDurationMs:       100,
			Idempotent:          true,
		},
		Handler: func(ctx context.Context, raw string) (string, error) {
			var a collectDigitsArgs
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return "", fmt.Errorf("telephonytools: collect_digits: %w", err)
			}
			if deps.CollectDigits == nil {
				return "", fmt.Errorf("telephonytools: collect_digits: not wired")
			}
			args := digitengine.RequestDigitCollectionArgs{Profile: a.Profile, Prompt: a.Prompt}
			if err := deps.CollectDigits(ctx, callID, args); err != nil {
				return "", err
			}
			return `{"ok":true}`, nil
		},
		DeclaredP50: 10,
		DeclaredMax: 100,
	}
}

type collectMultipleDigitsArgs struct {
	Group             string `json:"group"`
	Prompt            string `json:"prompt"`
	CaptureMode       string `json:"capture_mode"`
	EndCallOnSuccess  bool   `json:"end_call_on_success"`
	CompletionMessage string `json:"completion_message"`
}

func collectMultipleDigitsTool(callID string, deps Deps) Tool {
	return Tool{
		Definition: Definition{
			Name:        ToolCollectMultipleDigits,
			Description: "Begin a multi-step grouped digit collection plan (e.g. banking: routing then account number; card: number, expiry, zip, cvv).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"group":               map[string]any{"type": "string", "description": "banking or card."},
					"prompt":              map[string]any{"type": "string", "description": "The prompt to speak for the first step."},
					"capture_mode":        map[string]any{"type": "string", "description": "stream or turn."},
					"end_call_on_success": map[string]any{"type": "boolean"},
					"completion_message":  map[string]any{"type": "string"},
				},
				"required": []string{"group"},
			},
			EstimatedDurationMs: 10,
			MaxDurationMs:       100,
			Idempotent:          true,
		},
		Handler: func(ctx context.Context, raw string) (string, error) {
			var a collectMultipleDigitsArgs
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return "", fmt.Errorf("telephonytools: collect_multiple_digits: %w", err)
			}
			if deps.CollectMultipleDigits == nil {
				return "", fmt.Errorf("telephonytools: collect_multiple_digits: not wired")
			}
			args := digitengine.RequestDigitCollectionPlanArgs{
				Group:             a.Group,
				Prompt:            a.Prompt,
				CaptureMode:       digitengine.CaptureMode(a.CaptureMode),
				EndCallOnSuccess:  a.EndCallOnSuccess,
				CompletionMessage: a.CompletionMessage,
			}
			if err := deps.CollectMultipleDigits(ctx, callID, args); err != nil {
				return "", err
			}
			return `{"ok":true}`, nil
		},
		DeclaredP50: 10,
		DeclaredMax: 100,
	}
}

type playDisclosureArgs struct {
	Text string `json:"text"`
}

func playDisclosureTool(callID string, deps Deps) Tool {
	return Tool{
		Definition: Definition{
			Name:        ToolPlayDisclosure,
			Description: "Speak a required legal or compliance disclosure verbatim to the caller.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{"type": "string", "description": "The disclosure text to speak verbatim."},
				},
				"required": []string{"text"},
			},
			EstimatedDurationMs: 20,
			MaxDurationMs:       200,
		},
		Handler: func(ctx context.Context, raw string) (string, error) {
			var a playDisclosureArgs
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				return "", fmt.Errorf("telephonytools: play_disclosure: %w", err)
			}
			if deps.PlayDisclosure == nil {
				return "", fmt.Errorf("telephonytools: play_disclosure: not wired")
			}
			if err := deps.PlayDisclosure(ctx, callID, a.Text); err != nil {
				return "", err
			}
			return `{"ok":true}`, nil
		},
		DeclaredP50: 20,
		DeclaredMax: 200,
	}
}
