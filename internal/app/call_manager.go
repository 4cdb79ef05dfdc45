package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxorbit/callorbit/internal/callsession"
	"github.com/voxorbit/callorbit/internal/config"
	"github.com/voxorbit/callorbit/internal/console"
	"github.com/voxorbit/callorbit/internal/digitengine"
	"github.com/voxorbit/callorbit/internal/llmqueue"
	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/internal/observe"
	"github.com/voxorbit/callorbit/internal/profile"
	"github.com/voxorbit/callorbit/internal/registry"
	"github.com/voxorbit/callorbit/internal/statusclassifier"
	"github.com/voxorbit/callorbit/internal/telephonytools"
	"github.com/voxorbit/callorbit/internal/timer"
	"github.com/voxorbit/callorbit/pkg/provider/chat"
	"github.com/voxorbit/callorbit/pkg/store"
	"github.com/voxorbit/callorbit/pkg/store/postgres"
	"github.com/voxorbit/callorbit/pkg/telephony"
	"github.com/voxorbit/callorbit/pkg/types"
)

// llmQueueBuffer sizes each call's single-worker task queue; 100 matches
// the minimum the queue's own contract requires callers to tolerate.
const llmQueueBuffer = 100

// terminalCheckInterval is how soon after arming (or after re-observed
// activity) the deferred terminal status is re-checked, under the
// call's timer.PendingTerminal slot. It is kept slightly above the
// classifier's own 8s quiet window so the check always lands after the
// window could have closed.
const terminalCheckInterval = 8200 * time.Millisecond

// callState bundles the per-call collaborators CallManager must tear down
// when the call ends.
type callState struct {
	session *callsession.Session
	queue   *llmqueue.Queue
	console *console.Renderer
}

// callEvidence tracks the signals statusclassifier.Classify needs beyond
// the raw webhook: whether the call was ever answered, whether media was
// observed, and its last classified status.
type callEvidence struct {
	answeredAt  *time.Time
	mediaSeen   bool
	priorStatus telephony.CallStatus
}

// CallManager owns the lifecycle of every in-progress call: constructing
// its callsession.Session and collaborators on arrival, routing inbound
// status events through the status classifier, and tearing everything
// down when the call ends. One CallManager serves the whole process;
// calls themselves are independent beyond sharing the process-global
// digit-collection circuit breaker inside registry.Registry.
type CallManager struct {
	cfg       *config.Config
	providers *Providers
	calls     *registry.Registry
	profiles  *profile.Registry
	store     *postgres.Store
	gate      *notifier.MemoryGate
	metrics   *observe.Metrics
	chat      chat.Provider
	policy    telephonytools.Policy

	mu       sync.Mutex
	states   map[string]*callState
	evidence map[string]*callEvidence
	deferred *statusclassifier.Deferred
}

// NewCallManager constructs a CallManager. chatProvider may be nil, in
// which case calls run without a live console message.
func NewCallManager(cfg *config.Config, providers *Providers, calls *registry.Registry, profiles *profile.Registry, st *postgres.Store, gate *notifier.MemoryGate, metrics *observe.Metrics, chatProvider chat.Provider) *CallManager {
	return &CallManager{
		cfg:       cfg,
		providers: providers,
		calls:     calls,
		profiles:  profiles,
		store:     st,
		gate:      gate,
		metrics:   metrics,
		chat:      chatProvider,
		policy: telephonytools.Policy{
			AllowTransfer:        cfg.Telephony.AllowTransfer,
			AllowDigitCollection: cfg.Telephony.AllowDigitCollection,
			AllowDisclosure:      cfg.Telephony.AllowDisclosure,
		},
		states:   make(map[string]*callState),
		evidence: make(map[string]*callEvidence),
		deferred: statusclassifier.NewDeferred(),
	}
}

// StartCall admits a new inbound call: it persists the call row, wires
// every per-call adapter, and constructs the call's Session. callID,
// phone, and chatID come from the transport layer that received the
// inbound call (out of this module's scope); firstMessage is the greeting
// line and intent, if non-nil, installs an initial digit expectation
// ahead of conversational flow.
func (m *CallManager) StartCall(ctx context.Context, callID, phone, chatID, prompt, firstMessage string, intent *callsession.InitialDigitIntent) (*callsession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.states[callID]; exists {
		return nil, fmt.Errorf("call_manager: call %q already active", callID)
	}

	now := time.Now()
	row := store.CallRow{
		CallID: callID, Phone: phone, Prompt: prompt, FirstMessage: firstMessage,
		ChatOwner: chatID, StartedAt: now, Status: telephony.StatusInitiated,
	}
	if err := m.store.Calls().Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("call_manager: persist call row: %w", err)
	}

	var renderer *console.Renderer
	if m.chat != nil {
		renderer = console.New(console.ChatSender{Provider: m.chat})
		if err := renderer.Ensure(ctx, chatID, fmt.Sprintf("Call %s starting…", callID), console.Markup{}, now); err != nil {
			slog.Warn("call_manager: console ensure failed", "call_id", callID, "err", err)
		}
	}

	call := m.calls.Create(callID, m.profiles, staticHealthProvider{status: digitengine.HealthHealthy}, staticRiskProvider{score: 0})

	ttsAd := newTTSAdapter(m.providers.TTS, types.VoiceProfile{}, nil, m.metrics)
	toolDeps := telephonytools.Deps{
		ConfirmIdentity: func(ctx context.Context, callID string, confirmed bool, method string) error {
			return m.store.CallStates().Append(ctx, store.CallStateRow{
				CallID: callID, Event: "identity_confirmed",
				Payload: map[string]any{"confirmed": confirmed, "method": method}, CreatedAt: time.Now(),
			})
		},
		RouteToAgent: func(ctx context.Context, callID, reason string) error {
			return m.store.CallStates().Append(ctx, store.CallStateRow{
				CallID: callID, Event: "routed_to_agent",
				Payload: map[string]any{"reason": reason}, CreatedAt: time.Now(),
			})
		},
		CollectDigits: func(_ context.Context, callID string, args digitengine.RequestDigitCollectionArgs) error {
			call.Digits.RequestDigitCollection(args, time.Now())
			return nil
		},
		CollectMultipleDigits: func(_ context.Context, callID string, args digitengine.RequestDigitCollectionPlanArgs) error {
			call.Digits.RequestDigitCollectionPlan(args, time.Now())
			return nil
		},
		PlayDisclosure: func(ctx context.Context, callID, text string) error {
			return ttsAd.Speak(ctx, callID, text)
		},
	}
	table := telephonytools.BuildTable(callID, toolDeps, m.policy)

	llmAd := newLLMAdapter(m.providers.LLM, prompt, table, m.metrics)
	telephonyAd := newTelephonyAdapter(m.store.Calls())
	statusRep := newStatusReporter(m.store.Calls(), m.store.Notifications(), m.gate, chatID)
	consoleAd := newConsoleAdapter(renderer)
	recorder := newTranscriptRecorder(m.store.Transcripts())

	queue := llmqueue.New(context.Background(), llmQueueBuffer)

	deps := callsession.Deps{
		LLM: llmAd, TTS: ttsAd, Telephony: telephonyAd, Status: statusRep,
		Console: consoleAd, Recorder: recorder,
	}
	session := callsession.New(call, queue, deps, firstMessage, intent)

	m.states[callID] = &callState{session: session, queue: queue, console: renderer}
	m.evidence[callID] = &callEvidence{}

	if m.metrics != nil {
		m.metrics.ActiveCalls.Add(ctx, 1)
	}
	slog.Info("call started", "call_id", callID, "phone", phone)
	return session, nil
}

// Session returns the active Session for callID, if any.
func (m *CallManager) Session(callID string) (*callsession.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[callID]
	if !ok {
		return nil, false
	}
	return st.session, true
}

// EndCall tears down callID's Session, queue, and registry entry. Safe to
// call more than once; subsequent calls are a no-op.
func (m *CallManager) EndCall(callID string) {
	m.mu.Lock()
	st, ok := m.states[callID]
	delete(m.states, callID)
	delete(m.evidence, callID)
	m.mu.Unlock()
	if !ok {
		return
	}

	st.queue.Close()
	m.calls.Remove(callID)
	m.deferred.Cancel(callID)
	if m.metrics != nil {
		m.metrics.ActiveCalls.Add(context.Background(), -1)
	}
	slog.Info("call ended", "call_id", callID)
}

// HandleMediaActivity records that media was observed on callID, resetting
// any pending terminal classification's quiet window.
func (m *CallManager) HandleMediaActivity(callID string, now time.Time) {
	m.mu.Lock()
	ev, ok := m.evidence[callID]
	m.mu.Unlock()
	if !ok {
		return
	}
	ev.mediaSeen = true
	m.deferred.NoteActivity(callID, now)
}

// HandleStatusWebhook classifies a provider call-status callback and
// either persists the reconciled status directly (non-terminal) or arms
// the deferred-terminal window (terminal), scheduling a re-check once the
// window may have elapsed.
func (m *CallManager) HandleStatusWebhook(ctx context.Context, callID string, wh telephony.StatusWebhook) error {
	call, ok := m.calls.Get(callID)
	if !ok {
		return fmt.Errorf("call_manager: status webhook for unknown call %q", callID)
	}

	m.mu.Lock()
	ev, ok := m.evidence[callID]
	if !ok {
		ev = &callEvidence{}
		m.evidence[callID] = ev
	}
	m.mu.Unlock()

	if wh.CallStatus == telephony.StatusAnswered && ev.answeredAt == nil {
		now := time.Now()
		ev.answeredAt = &now
	}

	status, voicemail := statusclassifier.Classify(wh.CallStatus, wh.AnsweredBy, statusclassifier.Evidence{
		AnsweredAt: ev.answeredAt, MediaSeen: ev.mediaSeen, PriorStatus: ev.priorStatus,
		Duration: wh.AuthoritativeDuration(),
	})
	ev.priorStatus = status

	if !statusclassifier.IsTerminal(status) {
		return m.persistStatus(ctx, callID, status, "", "")
	}

	now := time.Now()
	m.deferred.Arm(callID, status, voicemail, now)
	call.Timers.Reset(timer.PendingTerminal, terminalCheckInterval, func() {
		m.checkDeferredTerminal(context.Background(), callID)
	})
	return nil
}

// checkDeferredTerminal releases callID's deferred terminal status if its
// quiet window has elapsed, persisting it and tearing the call down.
func (m *CallManager) checkDeferredTerminal(ctx context.Context, callID string) {
	status, voicemail, ready := m.deferred.Ready(callID, time.Now())
	if !ready {
		if call, ok := m.calls.Get(callID); ok {
			call.Timers.Reset(timer.PendingTerminal, terminalCheckInterval, func() {
				m.checkDeferredTerminal(context.Background(), callID)
			})
		}
		return
	}
	errMsg := ""
	if voicemail {
		errMsg = "voicemail detected"
	}
	if err := m.persistStatus(ctx, callID, status, "", errMsg); err != nil {
		slog.Warn("call_manager: persist terminal status failed", "call_id", callID, "err", err)
	}
	m.EndCall(callID)
}

func (m *CallManager) persistStatus(ctx context.Context, callID string, status telephony.CallStatus, errorCode, errorMessage string) error {
	row, err := m.store.Calls().Get(ctx, callID)
	if err != nil {
		return err
	}
	row.Status = status
	row.ErrorCode = errorCode
	row.ErrorMessage = errorMessage
	if status == telephony.StatusCompleted || status == telephony.StatusBusy ||
		status == telephony.StatusNoAnswer || status == telephony.StatusFailed ||
		status == telephony.StatusCanceled || status == telephony.StatusVoicemail {
		row.EndedAt = time.Now()
	}
	return m.store.Calls().Upsert(ctx, row)
}

// ActiveCalls reports the number of calls currently tracked.
func (m *CallManager) ActiveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
