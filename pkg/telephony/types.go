// Package telephony defines the wire-level shapes exchanged with a
// telephony provider: the call-status webhook payload and the bidirectional
// media-stream events. The transport that receives these (HTTP server, WS
// listener) is explicitly out of scope for this module — only the decoded
// shapes and the pure functions over them live here.
package telephony

import "time"

// CallStatus is a provider-reported call status, before reconciliation by
// the status classifier.
type CallStatus string

// Provider-reported status values accepted from the call-status webhook.
const (
	StatusQueued     CallStatus = "queued"
	StatusInitiated  CallStatus = "initiated"
	StatusRinging    CallStatus = "ringing"
	StatusAnswered   CallStatus = "answered"
	StatusInProgress CallStatus = "in-progress"
	StatusCompleted  CallStatus = "completed"
	StatusBusy       CallStatus = "busy"
	StatusNoAnswer   CallStatus = "no-answer"
	StatusFailed     CallStatus = "failed"
	StatusCanceled   CallStatus = "canceled"
	StatusVoicemail  CallStatus = "voicemail"
)

// AnsweredBy classifies who (or what) picked up the call.
type AnsweredBy string

// Well-known AnsweredBy values.
const (
	AnsweredByHuman       AnsweredBy = "human"
	AnsweredByMachine     AnsweredBy = "machine"
	AnsweredByMachineStart AnsweredBy = "machine_start"
	AnsweredByMachineEnd  AnsweredBy = "machine_end"
	AnsweredByFax         AnsweredBy = "fax"
)

// StatusWebhook is the decoded form of the provider's call-status HTTP POST.
// The handler that parses the raw form values into this struct, and the
// HTTP 200/"OK" response it must issue, belong to the transport layer
// (out of scope); only this struct and the classification that consumes it
// are in scope.
type StatusWebhook struct {
	CallSid          string
	CallStatus       CallStatus
	Duration         time.Duration
	CallDuration     time.Duration
	DialCallDuration time.Duration
	AnsweredBy       AnsweredBy
	ErrorCode        string
	ErrorMessage     string
	From             string
	To               string
}

// AuthoritativeDuration returns the maximum of Duration, CallDuration, and
// DialCallDuration. Providers populate these inconsistently across status
// transitions, so the largest reported value is the one to trust.
func (w StatusWebhook) AuthoritativeDuration() time.Duration {
	d := w.Duration
	if w.CallDuration > d {
		d = w.CallDuration
	}
	if w.DialCallDuration > d {
		d = w.DialCallDuration
	}
	return d
}

// MediaEventKind enumerates the media-stream WebSocket event types.
type MediaEventKind string

// Media-stream event kinds.
const (
	EventStart MediaEventKind = "start"
	EventMedia MediaEventKind = "media"
	EventDTMF  MediaEventKind = "dtmf"
	EventMark  MediaEventKind = "mark"
	EventStop  MediaEventKind = "stop"
)

// StartEvent binds a session to a media stream.
type StartEvent struct {
	StreamSid string
	CallSid   string
}

// MediaEvent carries one chunk of base64-decoded audio payload.
type MediaEvent struct {
	Payload []byte
}

// DTMFEvent carries one or more DTMF digits delivered as a single event.
type DTMFEvent struct {
	Digits string
}

// MarkEvent echoes a previously buffered audio mark, used for interruption
// detection (the agent's own speech reached the point the mark was set at).
type MarkEvent struct {
	Name string
}

// StopEvent signals that the provider has ended the media stream.
type StopEvent struct{}

// GatherResult is the payload of a Gather-fallback HTTP POST. An empty
// Digits value counts as a timeout attempt.
type GatherResult struct {
	Digits string
}

// Encoding identifies the PCM/µ-law sample encoding of an audio payload.
type Encoding int

// Supported audio encodings.
const (
	EncodingMuLaw8 Encoding = iota // 8-bit unsigned µ-law
	EncodingPCM16                  // 16-bit little-endian linear PCM
)
