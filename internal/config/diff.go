package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	TelephonyChanged bool // true if the default tool-gating policy changed
	LogLevelChanged  bool
	NewLogLevel      LogLevel
	ConsoleChanged   bool // true if the console debounce window changed
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart — the profile
// registry and store DSN are not hot-reloadable, since profile and store
// changes require reconstructing objects already handed out to in-flight
// calls.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Telephony != new.Telephony {
		d.TelephonyChanged = true
	}

	if old.Console != new.Console {
		d.ConsoleChanged = true
	}

	return d
}
