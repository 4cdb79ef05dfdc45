package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/voxorbit/callorbit/internal/profile"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":  {"openai", "anyllm"},
	"stt":  {"deepgram", "whisper"},
	"tts":  {"elevenlabs", "coqui"},
	"sms":  {"twilio", "vonage"},
	"chat": {"telegram", "slack"},
}

// validValidators and validMasks mirror profile.Validator and
// profile.MaskStrategy's supported values, duplicated here so YAML config
// values can be checked without importing validation logic into profile
// itself.
var (
	validValidators = []string{"none", "luhn", "routing", "otp", "dob", "expiry"}
	validMasks      = []string{"masked", "last4"}
	validChannels   = []string{"dtmf", "sms", "voice"}
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("sms", cfg.Providers.SMS.Name)
	validateProviderName("chat", cfg.Providers.Chat.Name)

	// Provider availability warnings
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; calls will not be able to generate responses")
	}
	if cfg.Providers.Chat.Name == "" {
		slog.Warn("no chat provider configured; the live console will not be visible to operators")
	}

	// Store availability
	if cfg.Store.PostgresDSN == "" {
		slog.Warn("store.postgres_dsn is empty; calls will not be persisted")
	}

	// Profile duplicate id detection
	idsSeen := make(map[string]int, len(cfg.Profiles))

	for i, p := range cfg.Profiles {
		prefix := fmt.Sprintf("profiles[%d]", i)
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else {
			if prev, ok := idsSeen[p.ID]; ok {
				errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of profiles[%d]", prefix, p.ID, prev))
			}
			idsSeen[p.ID] = i
		}
		if p.MinDigits > 0 && p.MaxDigits > 0 && p.MinDigits > p.MaxDigits {
			errs = append(errs, fmt.Errorf("%s: min_digits %d exceeds max_digits %d", prefix, p.MinDigits, p.MaxDigits))
		}
		if p.Validator != "" && !slices.Contains(validValidators, p.Validator) {
			errs = append(errs, fmt.Errorf("%s.validator %q is invalid; valid values: %v", prefix, p.Validator, validValidators))
		}
		if p.Mask != "" && !slices.Contains(validMasks, p.Mask) {
			errs = append(errs, fmt.Errorf("%s.mask %q is invalid; valid values: %v", prefix, p.Mask, validMasks))
		}
		for _, ch := range p.Channels {
			if !slices.Contains(validChannels, ch) {
				errs = append(errs, fmt.Errorf("%s.channels: %q is invalid; valid values: %v", prefix, ch, validChannels))
			}
		}
		if p.Validator == "otp" {
			if p.MinDigits != 0 && p.MinDigits < 4 {
				errs = append(errs, fmt.Errorf("%s: otp profiles require min_digits >= 4", prefix))
			}
			if p.MaxDigits != 0 && p.MaxDigits > 8 {
				errs = append(errs, fmt.Errorf("%s: otp profiles require max_digits <= 8", prefix))
			}
		}
	}

	// Resilience
	if cfg.Resilience.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("resilience.max_failures must be >= 0"))
	}
	if cfg.Resilience.ResetTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("resilience.reset_timeout_seconds must be >= 0"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// BuildProfiles converts cfg's YAML profile entries into a profile.Registry,
// merged over the package's compile-time default table (entries with a
// matching id override the default).
func BuildProfiles(cfg *Config) *profile.Registry {
	extra := make([]profile.Profile, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		channels := make([]profile.Channel, 0, len(p.Channels))
		for _, ch := range p.Channels {
			channels = append(channels, profile.Channel(ch))
		}
		extra = append(extra, profile.Profile{
			ID:                    p.ID,
			MinDigits:             p.MinDigits,
			MaxDigits:             p.MaxDigits,
			DefaultTimeoutSeconds: p.DefaultTimeoutSeconds,
			DefaultMaxRetries:     p.DefaultMaxRetries,
			Validator:             profile.Validator(p.Validator),
			Mask:                  profile.MaskStrategy(p.Mask),
			Channels:              channels,
		})
	}
	return profile.New(extra...)
}
