package telephonytools

import (
	"context"
	"testing"

	"github.com/voxorbit/callorbit/internal/digitengine"
)

func names(table []Tool) map[Name]bool {
	out := make(map[Name]bool, len(table))
	for _, t := range table {
		out[t.Definition.Name] = true
	}
	return out
}

func TestBuildTableAlwaysIncludesConfirmIdentity(t *testing.T) {
	table := BuildTable("call-1", Deps{}, Policy{})
	if !names(table)[ToolConfirmIdentity] {
		t.Fatal("expected confirm_identity to always be present")
	}
	if len(table) != 1 {
		t.Fatalf("expected only confirm_identity with an all-false policy, got %d tools", len(table))
	}
}

func TestBuildTableGatesOptionalTools(t *testing.T) {
	table := BuildTable("call-1", Deps{}, Policy{AllowTransfer: true, AllowDigitCollection: true, AllowDisclosure: true})
	got := names(table)
	for _, want := range []Name{ToolConfirmIdentity, ToolRouteToAgent, ToolCollectDigits, ToolCollectMultipleDigits, ToolPlayDisclosure} {
		if !got[want] {
			t.Fatalf("expected %s to be present under a fully-open policy", want)
		}
	}
}

func TestConfirmIdentityHandlerInvokesDeps(t *testing.T) {
	var gotConfirmed bool
	var gotMethod string
	deps := Deps{ConfirmIdentity: func(ctx context.Context, callID string, confirmed bool, method string) error {
		gotConfirmed = confirmed
		gotMethod = method
		return nil
	}}
	table := BuildTable("call-1", deps, Policy{})
	result, err := table[0].Handler(context.Background(), `{"confirmed":true,"method":"dob"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"ok":true}` {
		t.Fatalf("unexpected result: %q", result)
	}
	if !gotConfirmed || gotMethod != "dob" {
		t.Fatalf("expected deps invoked with confirmed=true method=dob, got %v %q", gotConfirmed, gotMethod)
	}
}

func TestCollectDigitsHandlerTranslatesArgs(t *testing.T) {
	var gotArgs digitengine.RequestDigitCollectionArgs
	deps := Deps{CollectDigits: func(ctx context.Context, callID string, args digitengine.RequestDigitCollectionArgs) error {
		gotArgs = args
		return nil
	}}
	table := BuildTable("call-1", deps, Policy{AllowDigitCollection: true})
	var tool Tool
	for _, tl := range table {
		if tl.Definition.Name == ToolCollectDigits {
			tool = tl
		}
	}
	if tool.Handler == nil {
		t.Fatal("expected collect_digits tool present")
	}
	if _, err := tool.Handler(context.Background(), `{"profile":"pin","prompt":"Enter your pin"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotArgs.Profile != "pin" || gotArgs.Prompt != "Enter your pin" {
		t.Fatalf("unexpected translated args: %+v", gotArgs)
	}
}

func TestHandlerErrorsWhenDepNotWired(t *testing.T) {
	table := BuildTable("call-1", Deps{}, Policy{AllowTransfer: true})
	var tool Tool
	for _, tl := range table {
		if tl.Definition.Name == ToolRouteToAgent {
			tool = tl
		}
	}
	if _, err := tool.Handler(context.Background(), `{"reason":"caller asked"}`); err == nil {
		t.Fatal("expected an error when RouteToAgent is not wired")
	}
}

func TestHandlerRejectsMalformedArgs(t *testing.T) {
	table := BuildTable("call-1", Deps{}, Policy{})
	if _, err := table[0].Handler(context.Background(), `not json`); err == nil {
		t.Fatal("expected an error for malformed JSON arguments")
	}
}
