package config_test

import (
	"testing"

	"github.com/voxorbit/callorbit/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelInfo},
		Telephony: config.TelephonyConfig{AllowTransfer: true},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.TelephonyChanged {
		t.Error("expected TelephonyChanged=false for identical configs")
	}
	if d.ConsoleChanged {
		t.Error("expected ConsoleChanged=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelInfo}}
	newCfg := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelDebug}}

	d := config.Diff(old, newCfg)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogLevelDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_TelephonyPolicyChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Telephony: config.TelephonyConfig{AllowTransfer: false}}
	newCfg := &config.Config{Telephony: config.TelephonyConfig{AllowTransfer: true}}

	d := config.Diff(old, newCfg)
	if !d.TelephonyChanged {
		t.Error("expected TelephonyChanged=true")
	}
}

func TestDiff_ConsoleDebounceChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Console: config.ConsoleConfig{DebounceMs: 700}}
	newCfg := &config.Config{Console: config.ConsoleConfig{DebounceMs: 1000}}

	d := config.Diff(old, newCfg)
	if !d.ConsoleChanged {
		t.Error("expected ConsoleChanged=true")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelInfo},
		Telephony: config.TelephonyConfig{AllowDisclosure: true},
	}
	newCfg := &config.Config{
		Server:    config.ServerConfig{LogLevel: config.LogLevelWarn},
		Telephony: config.TelephonyConfig{AllowDisclosure: false},
	}

	d := config.Diff(old, newCfg)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.TelephonyChanged {
		t.Error("expected TelephonyChanged=true")
	}
}
