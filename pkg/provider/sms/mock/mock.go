// Package mock provides a test double for the sms.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxorbit/callorbit/pkg/provider/sms"
)

// SendCall records a single invocation of Send.
type SendCall struct {
	Ctx context.Context
	Msg sms.Message
}

// Provider is a mock implementation of sms.Provider.
type Provider struct {
	mu sync.Mutex

	// SendResult is returned by Send. Zero value is a valid success result.
	SendResult sms.Result

	// SendErr, if non-nil, is returned as the error from Send.
	SendErr error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall
}

// Send records the call and returns SendResult, SendErr.
func (p *Provider) Send(ctx context.Context, msg sms.Message) (sms.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SendCalls = append(p.SendCalls, SendCall{Ctx: ctx, Msg: msg})
	return p.SendResult, p.SendErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SendCalls = nil
}

// Ensure Provider implements sms.Provider at compile time.
var _ sms.Provider = (*Provider)(nil)
