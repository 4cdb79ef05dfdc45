package callsession

import "context"

// LLMClient produces a conversational reply for a user utterance. The
// caller has already normalized and masked the utterance before this call.
type LLMClient interface {
	Complete(ctx context.Context, callID, utterance string) (reply string, err error)
}

// Synthesizer speaks text on the active call's media stream.
type Synthesizer interface {
	Speak(ctx context.Context, callID, text string) error
}

// Telephony issues provider-level call control.
type Telephony interface {
	Hangup(ctx context.Context, callID string) error
}

// TerminalReporter emits the call's terminal status once closing completes.
type TerminalReporter interface {
	ReportTerminal(ctx context.Context, callID string, reason ClosingReason) error
}

// ConsoleNotifier surfaces a live-console event line, e.g. "GPT error,
// retrying". Failures here never affect call flow.
type ConsoleNotifier interface {
	Notify(callID, event string)
}
