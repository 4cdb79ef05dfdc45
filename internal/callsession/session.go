package callsession

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voxorbit/callorbit/internal/digitengine"
	"github.com/voxorbit/callorbit/internal/llmqueue"
	"github.com/voxorbit/callorbit/internal/registry"
	"github.com/voxorbit/callorbit/internal/timer"
	"github.com/voxorbit/callorbit/internal/transcript"
)

const (
	silenceTimeout        = 30 * time.Second
	utteranceDedupWindow  = 2 * time.Second
	minPromptDelayFloorMs = 1000
	maxLLMErrors          = 2
	maxTTSErrors          = 2
)

// Deps bundles the external collaborators a Session dispatches to. All
// fields are required except ConsoleNotifier and Recorder.
type Deps struct {
	LLM       LLMClient
	TTS       Synthesizer
	Telephony Telephony
	Status    TerminalReporter
	Console   ConsoleNotifier
	Recorder  TranscriptRecorder
}

// TranscriptRecorder persists a final transcript line before the call
// hangs up. Optional: a nil Recorder simply skips persistence.
type TranscriptRecorder interface {
	RecordFinal(ctx context.Context, callID, kind, text string) error
}

// InitialDigitIntent, when non-nil, is installed as the call's first
// digit expectation immediately after the greeting plays, instead of (or
// ahead of) normal conversational flow.
type InitialDigitIntent struct {
	Profile string
	Group   string
	Prompt  string
}

// Session is one call's state machine. All exported methods assume the
// caller already holds the owning registry.Call's lock, matching the
// orchestrator's single-goroutine-per-call serialization guarantee.
type Session struct {
	call *registry.Call
	deps Deps
	llmq *llmqueue.Queue

	state         State
	greeted       bool
	initialIntent *InitialDigitIntent

	interactionCount int
	lastUtterance    string
	lastUtteranceAt  time.Time

	consecutiveLLMErrors int
	consecutiveTTSErrors int

	pendingDigitRaw []string

	endOnce sync.Once

	firstMessage string
}

// New constructs a Session bound to call. firstMessage is the configured
// greeting line played absent an initial digit intent.
func New(call *registry.Call, queue *llmqueue.Queue, deps Deps, firstMessage string, intent *InitialDigitIntent) *Session {
	return &Session{
		call:          call,
		deps:          deps,
		llmq:          queue,
		state:         StateConnecting,
		initialIntent: intent,
		firstMessage:  firstMessage,
	}
}

// State returns the session's current coarse phase.
func (s *Session) State() State { return s.state }

// HandleMediaReady plays the initial greeting the first time media
// becomes available on the call; subsequent calls are a no-op.
func (s *Session) HandleMediaReady(ctx context.Context, now time.Time) {
	if s.greeted {
		return
	}
	s.greeted = true
	s.state = StateInitialGreeting

	greeting := s.firstMessage
	if s.initialIntent != nil {
		exp := s.call.Digits.RequestDigitCollection(digitengine.RequestDigitCollectionArgs{
			Profile: s.initialIntent.Profile,
			Group:   s.initialIntent.Group,
			Prompt:  s.initialIntent.Prompt,
		}, now)
		if s.initialIntent.Prompt != "" {
			greeting = s.initialIntent.Prompt
		}
		s.armDigitTimeout(exp, now)
	}

	if err := s.speak(ctx, greeting); err != nil {
		s.onTTSFailure(ctx, now)
		return
	}

	if s.initialIntent != nil {
		s.state = StateDigitCapture
	} else {
		s.state = StateConversing
		s.armSilenceTimer(now)
	}

	s.drainPendingDigits(now)
}

// drainPendingDigits replays anything left in pendingDigitRaw, in arrival
// order. HandleDTMF hands early input to the digit engine's buffer, which
// SetExpectation flushes, and adds nothing to this list.
func (s *Session) drainPendingDigits(now time.Time) {
	if s.call.Digits.Expectation() == nil || len(s.pendingDigitRaw) == 0 {
		return
	}
	for _, raw := range s.pendingDigitRaw {
		s.call.Digits.RecordDigits(raw, digitengine.RecordMeta{}, -1, now)
	}
	s.pendingDigitRaw = nil
}

// HandleDTMF routes a captured DTMF key to the digit engine, never to the
// LLM. Input arriving before any expectation exists is buffered.
func (s *Session) HandleDTMF(ctx context.Context, raw string, now time.Time) {
	if s.call.Digits.Expectation() == nil {
		s.call.Digits.BufferDigits(raw)
		return
	}
	s.call.Timers.Clear(timer.Silence)
	collection := s.call.Digits.RecordDigits(raw, digitengine.RecordMeta{}, -1, now)
	s.afterCollection(ctx, collection, now)
}

// HandleUtterance processes one finalized STT hypothesis, routing it to
// the digit engine's spoken-OTP path during active capture, or to the
// LLM Task Queue during normal conversation.
func (s *Session) HandleUtterance(ctx context.Context, text string, now time.Time) {
	exp := s.call.Digits.Expectation()
	if exp != nil {
		if exp.AllowSpokenFallback {
			bounds := transcript.Bounds{Min: exp.MinDigits, Max: exp.MaxDigits}
			if otp, ok := transcript.ExtractOTP(text, bounds); ok {
				collection := s.call.Digits.RecordDigits(otp, digitengine.RecordMeta{}, -1, now)
				s.afterCollection(ctx, collection, now)
				return
			}
		}
		// Utterances during active capture that aren't recognized OTP
		// speech are dropped from the LLM path entirely.
		return
	}

	if s.isDuplicateUtterance(text, now) {
		return
	}
	s.lastUtterance = text
	s.lastUtteranceAt = now

	if s.interactionCount >= 1 && matchesUserClosing(text) {
		s.beginClosing(ctx, ClosingUserGoodbye, now)
		return
	}

	s.submitCompletion(ctx, text)
}

func (s *Session) isDuplicateUtterance(text string, now time.Time) bool {
	return text == s.lastUtterance && now.Sub(s.lastUtteranceAt) < utteranceDedupWindow
}

// submitCompletion enqueues an LLM completion task. The queue guarantees
// at most one outstanding completion per call.
func (s *Session) submitCompletion(ctx context.Context, utterance string) {
	callID := s.call.ID
	s.llmq.Submit(llmqueue.Task{Run: func(ctx context.Context) error {
		reply, err := s.deps.LLM.Complete(ctx, callID, utterance)
		if err != nil {
			s.onLLMFailure(ctx)
			return err
		}
		s.consecutiveLLMErrors = 0
		s.interactionCount++
		if err := s.speak(ctx, reply); err != nil {
			s.onTTSFailure(ctx, time.Now())
		}
		return nil
	}})
}

func (s *Session) onLLMFailure(ctx context.Context) {
	s.consecutiveLLMErrors++
	if s.deps.Console != nil {
		s.deps.Console.Notify(s.call.ID, "GPT error, retrying")
	}
	if s.consecutiveLLMErrors >= maxLLMErrors {
		s.beginClosing(ctx, ClosingLLMFailure, time.Now())
		return
	}
	_ = s.speak(ctx, "One moment.")
}

func (s *Session) onTTSFailure(ctx context.Context, now time.Time) {
	s.consecutiveTTSErrors++
	if s.consecutiveTTSErrors >= maxTTSErrors {
		s.beginClosing(ctx, ClosingTTSFailure, now)
		return
	}
	_ = s.speak(ctx, "One moment, please.")
}

func (s *Session) speak(ctx context.Context, text string) error {
	if s.deps.TTS == nil {
		return nil
	}
	if err := s.deps.TTS.Speak(ctx, s.call.ID, text); err != nil {
		slog.Error("callsession: speak failed", "call_id", s.call.ID, "error", err)
		return err
	}
	s.consecutiveTTSErrors = 0
	return nil
}

// afterCollection reacts to a digit-engine classification: clearing or
// rearming the digit timeout, advancing an active plan, or issuing a
// reprompt.
func (s *Session) afterCollection(ctx context.Context, c digitengine.Collection, now time.Time) {
	s.call.Digits.RecordBreakerOutcome(c.Accepted, now)
	if !c.Accepted {
		exp := s.call.Digits.Expectation()
		if exp == nil {
			return
		}
		reprompt := digitengine.ChooseReprompt(exp, c.Reason, c.Digits, digitengine.AffectUnknown)
		_ = s.speak(ctx, reprompt.Text)
		s.armDigitTimeout(*exp, now)
		return
	}

	if s.call.Digits.Plan() != nil {
		done, completed := s.call.Digits.AdvancePlan(c.Digits, now)
		if !done {
			return // duplicate redelivery within the fingerprint window
		}
		if completed {
			s.call.Timers.Clear(timer.DigitTimeout)
			s.state = StateConversing
			s.armSilenceTimer(now)
			return
		}
		if exp := s.call.Digits.Expectation(); exp != nil {
			s.armDigitTimeout(*exp, now)
		}
		return
	}

	s.call.Timers.Clear(timer.DigitTimeout)
	s.state = StateConversing
	s.armSilenceTimer(now)
}

// armDigitTimeout computes the prompt-delay floor and arms the
// digit-timeout timer to fire after it elapses from the prompt timestamp,
// so a slow TTS render never shortens the caller's actual collection
// window.
func (s *Session) armDigitTimeout(exp digitengine.Expectation, now time.Time) {
	promptDelayMs := minPromptDelayFloorMs
	if exp.MinCollectDelayMs > promptDelayMs {
		promptDelayMs = exp.MinCollectDelayMs
	}
	if exp.EffectivePromptMs > promptDelayMs {
		promptDelayMs = exp.EffectivePromptMs
	}
	total := time.Duration(promptDelayMs)*time.Millisecond + time.Duration(exp.TimeoutSeconds)*time.Second
	s.call.Timers.Set(timer.DigitTimeout, total, func() {
		s.handleDigitTimeout(context.Background(), time.Now())
	})
}

func (s *Session) handleDigitTimeout(ctx context.Context, now time.Time) {
	exp := s.call.Digits.Expectation()
	if exp == nil {
		return
	}
	collection := s.call.Digits.RecordDigits("", digitengine.RecordMeta{}, -1, now)
	s.afterCollection(ctx, collection, now)
}

// armSilenceTimer starts or restarts the 30s silence timer, only valid
// while no digit capture or outstanding TTS suspends it.
func (s *Session) armSilenceTimer(now time.Time) {
	s.call.Timers.Set(timer.Silence, silenceTimeout, func() {
		s.handleSilenceTimeout(context.Background(), time.Now())
	})
}

func (s *Session) handleSilenceTimeout(ctx context.Context, now time.Time) {
	s.beginClosing(ctx, ClosingNoResponse, now)
}

// beginClosing runs the closing sequence exactly once per call: acquires
// the end-lock, persists a final transcript entry, speaks the closing
// line, waits out its estimated speech duration, instructs the provider
// to hang up, and reports the terminal status.
func (s *Session) beginClosing(ctx context.Context, reason ClosingReason, now time.Time) {
	s.endOnce.Do(func() {
		s.state = StateClosing
		s.call.Timers.ClearAll()

		msg := closingMessage(reason)
		if s.deps.Recorder != nil {
			if err := s.deps.Recorder.RecordFinal(ctx, s.call.ID, "call_ending", msg); err != nil {
				slog.Error("callsession: failed to persist closing transcript", "call_id", s.call.ID, "error", err)
			}
		}

		_ = s.speak(ctx, msg)
		time.Sleep(closingSpeechDuration(msg))

		if s.deps.Telephony != nil {
			if err := s.deps.Telephony.Hangup(ctx, s.call.ID); err != nil {
				slog.Error("callsession: hangup failed", "call_id", s.call.ID, "error", err)
			}
		}

		if s.deps.Status != nil {
			if err := s.deps.Status.ReportTerminal(ctx, s.call.ID, reason); err != nil {
				slog.Error("callsession: failed to report terminal status", "call_id", s.call.ID, "error", err)
			}
		}

		s.state = StateEnded
	})
}

// RequestOperatorEnd begins closing on an operator-initiated end action.
// Safe to call from a goroutine outside the call's normal event loop
// because the caller has already acquired the registry.Call lock.
func (s *Session) RequestOperatorEnd(ctx context.Context, now time.Time) {
	s.beginClosing(ctx, ClosingOperatorEnd, now)
}

// HandleSTTReconnect resumes after the transcript stream reconnects,
// without replaying the greeting: it re-arms the digit timeout when an
// expectation is active, or the silence timer while conversing. Both are
// measured from now, not from the original prompt time, and digit
// reprompt/end actions from the gap are not replayed.
func (s *Session) HandleSTTReconnect(ctx context.Context, now time.Time) {
	exp := s.call.Digits.Expectation()
	if exp != nil {
		s.armDigitTimeout(*exp, now)
		return
	}
	if s.state == StateConversing {
		s.armSilenceTimer(now)
	}
}
