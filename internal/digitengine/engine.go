package digitengine

import (
	"time"

	"github.com/voxorbit/callorbit/internal/profile"
)

// HealthProvider reports the current collection health status, pluggable
// so deployments can wire it to queue depth, CPU load, or a static value.
type HealthProvider interface {
	Health() HealthStatus
}

// RiskProvider scores a call in [0,1], pluggable so deployments can wire it
// to a fraud model or a static value.
type RiskProvider interface {
	Risk(callID string) float64
}

// AuditEvent names an audit/telemetry event emitted by the engine.
type AuditEvent string

// Emitted audit events.
const (
	EventExpectationSet       AuditEvent = "expectation_set"
	EventDigitCaptureStarted  AuditEvent = "DigitCaptureStarted"
	EventDigitCaptureAborted  AuditEvent = "DigitCaptureAborted"
)

// Engine is the per-call digit-collection handle: the current expectation
// (if any), the current plan (if any), and digits buffered before an
// expectation exists. The circuit breaker is process-global and shared
// across every Engine.
//
// Not safe for concurrent use by itself — callers serialize access per
// call, as required by the orchestrator's per-call ordering guarantee.
type Engine struct {
	callID  string
	reg     *profile.Registry
	breaker *Breaker
	health  HealthProvider
	risk    RiskProvider

	exp  *Expectation
	plan *Plan

	buffered []string

	events []AuditEvent
}

// NewEngine constructs an Engine bound to one call.
func NewEngine(callID string, reg *profile.Registry, breaker *Breaker, health HealthProvider, risk RiskProvider) *Engine {
	return &Engine{callID: callID, reg: reg, breaker: breaker, health: health, risk: risk}
}

// Expectation returns the current expectation, or nil if none is active.
func (e *Engine) Expectation() *Expectation { return e.exp }

// Plan returns the current plan, or nil if none is active.
func (e *Engine) Plan() *Plan { return e.plan }

// Events drains and returns audit events emitted since the last call.
func (e *Engine) Events() []AuditEvent {
	ev := e.events
	e.events = nil
	return ev
}

func (e *Engine) emit(ev AuditEvent) { e.events = append(e.events, ev) }

// SetExpectation normalizes params, applies the health and risk policies,
// stores the result as the active expectation, and flushes any digits
// buffered before this expectation existed.
func (e *Engine) SetExpectation(params SetParams, now time.Time) Expectation {
	health := HealthHealthy
	if e.health != nil {
		health = e.health.Health()
	}
	risk := 0.0
	if e.risk != nil {
		risk = e.risk.Risk(e.callID)
	}
	exp := SetExpectation(e.reg, params, health, risk)
	exp.PromptedAt = now
	e.exp = &exp
	e.emit(EventExpectationSet)
	e.emit(EventDigitCaptureStarted)
	_ = e.FlushBuffered(RecordMeta{}, now)
	return exp
}

// BufferDigits accepts raw input arriving before an expectation exists.
func (e *Engine) BufferDigits(raw string) {
	e.buffered = append(e.buffered, raw)
}

// FlushBuffered replays buffered input through RecordDigits now that an
// expectation exists. It is a strict loop: it stops the moment the
// expectation disappears (e.g. a reject exhausted retries and cleared
// state). Every dequeued item is recorded; RecordDigits reports no error,
// so no item is ever re-queued.
func (e *Engine) FlushBuffered(meta RecordMeta, now time.Time) []Collection {
	var out []Collection
	for len(e.buffered) > 0 {
		if e.exp == nil {
			break
		}
		raw := e.buffered[0]
		e.buffered = e.buffered[1:]
		out = append(out, RecordDigits(e.exp, raw, meta, -1, now))
	}
	return out
}

// RecordDigits classifies raw input against the active expectation. The
// caller must ensure an expectation exists; absent one, input should go
// through BufferDigits instead.
func (e *Engine) RecordDigits(raw string, meta RecordMeta, gapMs int, now time.Time) Collection {
	return RecordDigits(e.exp, raw, meta, gapMs, now)
}

// BreakerOpen reports whether the process-global circuit breaker is
// currently tripped for new expectations on this call.
func (e *Engine) BreakerOpen(now time.Time) bool {
	if open := e.breaker.Open(now); open {
		e.emit(EventDigitCaptureAborted)
		return true
	}
	return false
}

// RecordBreakerOutcome folds a collection's accept/reject result into the
// shared breaker's rolling window.
func (e *Engine) RecordBreakerOutcome(accepted bool, now time.Time) {
	e.breaker.RecordOutcome(accepted, now)
}

// RequestDigitCollectionArgs is operator input to RequestDigitCollection.
type RequestDigitCollectionArgs struct {
	Profile string
	Group   string
	Prompt  string
}

// RequestDigitCollection creates either a single-step expectation, or — if
// args.Profile names a group ("banking"/"card") — a grouped multi-step
// plan whose first step becomes the active expectation.
func (e *Engine) RequestDigitCollection(args RequestDigitCollectionArgs, now time.Time) Expectation {
	explicit := args.Group
	if explicit == "" {
		explicit = args.Profile
	}
	if g, ok := ResolveGroup(explicit, args.Prompt); ok {
		return e.startPlan(g, CaptureStream, true, "", now)
	}
	return e.SetExpectation(SetParams{Profile: args.Profile, InferFromPrompt: args.Prompt}, now)
}

// RequestDigitCollectionPlanArgs is operator input to
// RequestDigitCollectionPlan.
type RequestDigitCollectionPlanArgs struct {
	Group             string
	Prompt            string
	CaptureMode       CaptureMode
	EndCallOnSuccess  bool
	CompletionMessage string
}

// RequestDigitCollectionPlan creates an explicit multi-step plan.
func (e *Engine) RequestDigitCollectionPlan(args RequestDigitCollectionPlanArgs, now time.Time) Expectation {
	g, ok := ResolveGroup(args.Group, args.Prompt)
	if !ok {
		g = GroupBanking
	}
	mode := args.CaptureMode
	if mode == "" {
		mode = CaptureStream
	}
	return e.startPlan(g, mode, args.EndCallOnSuccess, args.CompletionMessage, now)
}

func (e *Engine) startPlan(g Group, mode CaptureMode, endOnSuccess bool, completionMsg string, now time.Time) Expectation {
	steps := StepsFor(g)
	e.plan = &Plan{
		Steps:             steps,
		Group:             g,
		CaptureMode:       mode,
		EndCallOnSuccess:  endOnSuccess,
		CompletionMessage: completionMsg,
		State:             PlanPlayFirstMessage,
	}
	exp := e.SetExpectation(SetParams{Profile: e.plan.CurrentProfileID(), Plan: e.plan.Linkage()}, now)
	exp.GroupLocked = true
	e.exp = &exp
	e.plan.State = PlanCollectStep
	return exp
}

// AdvancePlan is called after a plan step's digits are accepted. It runs
// the plan's fingerprint dedup check (a duplicate redelivery returns
// done=false), then advances the plan, installs the next expectation if
// steps remain, or completes the plan.
func (e *Engine) AdvancePlan(digits string, now time.Time) (done bool, completed bool) {
	if e.plan == nil {
		return true, false
	}
	if !e.plan.AcceptStep(digits, e.plan.CurrentProfileID(), now) {
		return false, false // duplicate redelivery, drop
	}
	e.plan.Advance()
	if e.plan.State == PlanComplete {
		e.plan = nil
		return true, true
	}
	exp := e.SetExpectation(SetParams{Profile: e.plan.CurrentProfileID(), Plan: e.plan.Linkage()}, now)
	exp.GroupLocked = true
	e.exp = &exp
	return true, false
}

// ClearCallState idempotently tears down all digit-engine state for this
// call.
func (e *Engine) ClearCallState() {
	e.exp = nil
	e.plan = nil
	e.buffered = nil
	e.events = nil
}
