package config_test

import (
	"strings"
	"testing"

	"github.com/voxorbit/callorbit/internal/config"
)

func TestValidate_DuplicateProfileIDs(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
  tts:
    name: elevenlabs
profiles:
  - id: verification
  - id: verification
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate profile ids, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_ProfileChannelsAccepted(t *testing.T) {
	t.Parallel()
	yaml := `
profiles:
  - id: pin
    channels: [dtmf, voice, sms]
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Profiles[0].Channels) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(cfg.Profiles[0].Channels))
	}
}

func TestValidate_BuildProfilesMergesOverDefaults(t *testing.T) {
	t.Parallel()
	yaml := `
profiles:
  - id: pin
    min_digits: 2
    max_digits: 2
    default_timeout_seconds: 5
    default_max_retries: 1
    validator: none
    mask: last4
    channels: [dtmf]
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg := config.BuildProfiles(cfg)
	p, ok := reg.Lookup("pin")
	if !ok {
		t.Fatal("expected pin profile to be present")
	}
	if p.MinDigits != 2 || p.MaxDigits != 2 {
		t.Errorf("expected overridden bounds 2/2, got %d/%d", p.MinDigits, p.MaxDigits)
	}
	// The generic fallback profile from the compile-time default table must
	// still be present alongside the configured override.
	if _, ok := reg.Lookup("generic"); !ok {
		t.Error("expected generic default profile to remain present")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
profiles:
  - id: dup
    validator: bogus
  - id: dup
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
	if !strings.Contains(errStr, "validator") {
		t.Errorf("error should mention validator, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	// Sanity-check that the map is populated.
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	llmNames := config.ValidProviderNames["llm"]
	if len(llmNames) == 0 {
		t.Fatal("ValidProviderNames[\"llm\"] should not be empty")
	}
	// Check that "openai" is in the LLM list.
	found := false
	for _, n := range llmNames {
		if n == "openai" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"llm\"] should contain \"openai\"")
	}
}
