package console

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   int
	edits  []renderRequest
	nextID string
}

func (s *recordingSender) Send(ctx context.Context, chatID, text string, markup Markup) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	if s.nextID == "" {
		s.nextID = "msg-1"
	}
	return s.nextID, nil
}

func (s *recordingSender) Edit(ctx context.Context, chatID, messageID, text string, markup Markup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = append(s.edits, renderRequest{text: text, markup: markup})
	return nil
}

func (s *recordingSender) editCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edits)
}

func TestEnsurePostsOnlyOnce(t *testing.T) {
	sender := &recordingSender{}
	r := New(sender)
	ctx := context.Background()
	now := time.Now()

	if err := r.Ensure(ctx, "chat-1", "hello", Markup{}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Ensure(ctx, "chat-1", "hello again", Markup{}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.sent != 1 {
		t.Fatalf("expected exactly one Send, got %d", sender.sent)
	}
}

func TestUpdateCoalescesWithinDebounceWindow(t *testing.T) {
	sender := &recordingSender{}
	r := New(sender, WithDebounce(20))
	ctx := context.Background()
	now := time.Now()
	r.Ensure(ctx, "chat-1", "initial", Markup{}, now)

	r.Update(ctx, "v1", Markup{}, false, now)
	r.Update(ctx, "v2", Markup{}, false, now)
	r.Update(ctx, "v3", Markup{}, false, now)

	time.Sleep(60 * time.Millisecond)

	if got := sender.editCount(); got != 1 {
		t.Fatalf("expected exactly one coalesced edit, got %d", got)
	}
	if sender.edits[0].text != "v3" {
		t.Fatalf("expected coalesced edit to carry the latest value, got %q", sender.edits[0].text)
	}
}

func TestUpdateSuppressesNoOp(t *testing.T) {
	sender := &recordingSender{}
	r := New(sender, WithDebounce(10))
	ctx := context.Background()
	now := time.Now()
	r.Ensure(ctx, "chat-1", "same", Markup{}, now)

	r.Update(ctx, "same", Markup{}, false, now)
	time.Sleep(30 * time.Millisecond)

	if got := sender.editCount(); got != 0 {
		t.Fatalf("expected no-op edit to be suppressed, got %d edits", got)
	}
}

func TestUpdateForceBypassesDebounce(t *testing.T) {
	sender := &recordingSender{}
	r := New(sender, WithDebounce(5000))
	ctx := context.Background()
	now := time.Now()
	r.Ensure(ctx, "chat-1", "initial", Markup{}, now)

	r.Update(ctx, "final", Markup{}, true, now)

	if got := sender.editCount(); got != 1 {
		t.Fatalf("expected forced edit to fire immediately, got %d edits", got)
	}
}

func TestQualityObserveDegradesOnJitter(t *testing.T) {
	var q Quality
	_, health := q.Observe(QualitySample{JitterMs: 5, LatencyMs: 50, ASRConfidence: 0.9})
	if health != HealthStable {
		t.Fatalf("expected stable on a clean sample, got %s", health)
	}
	_, health = q.Observe(QualitySample{JitterMs: 30, LatencyMs: 300, PacketLossPct: 2})
	if health != HealthCritical {
		t.Fatalf("expected critical with three deficits, got %s", health)
	}
}

func TestHighlightsBoundedAndDeduped(t *testing.T) {
	h := NewHighlights(false)
	h.Push("a")
	h.Push("a")
	h.Push("b")
	h.Push("c")
	h.Push("d")
	h.Push("e")

	lines := h.Lines()
	if len(lines) != 4 {
		t.Fatalf("expected ring bounded to 4, got %d: %v", len(lines), lines)
	}
	if lines[0] != "b" {
		t.Fatalf("expected oldest-evicted ring starting at b, got %v", lines)
	}
}

func TestHighlightsInboundCapAtThree(t *testing.T) {
	h := NewHighlights(true)
	h.Push("a")
	h.Push("b")
	h.Push("c")
	h.Push("d")
	if len(h.Lines()) != 3 {
		t.Fatalf("expected inbound ring capped at 3, got %d", len(h.Lines()))
	}
}

func TestPreviewTruncatesAndRedacts(t *testing.T) {
	long := ""
	for i := 0; i < 250; i++ {
		long += "x"
	}
	if got := Preview(long, false); len(got) != previewMaxChars {
		t.Fatalf("expected truncation to %d chars, got %d", previewMaxChars, len(got))
	}

	redacted := Preview("my pin is 48291 ok", true)
	if redacted != "my pin is •••• ok" {
		t.Fatalf("expected digit run redacted, got %q", redacted)
	}
}

func TestInboundGateExpiresAfterRingWindow(t *testing.T) {
	start := time.Now()
	g := NewInboundGate(start)
	if state := g.Tick(start.Add(5 * time.Second)); state != InboundPending {
		t.Fatalf("expected still pending, got %s", state)
	}
	if state := g.Tick(start.Add(31 * time.Second)); state != InboundExpired {
		t.Fatalf("expected expired after ring window, got %s", state)
	}
}

func TestInboundGateAnswerResolvesOnce(t *testing.T) {
	g := NewInboundGate(time.Now())
	g.Answer()
	g.Decline()
	if g.State() != InboundAnswered {
		t.Fatalf("expected answer to stick once resolved, got %s", g.State())
	}
}

func TestWorkingLockExpires(t *testing.T) {
	start := time.Now()
	if !WorkingLock(start, start.Add(500*time.Millisecond)) {
		t.Fatal("expected working lock still held at 500ms")
	}
	if WorkingLock(start, start.Add(2*time.Second)) {
		t.Fatal("expected working lock released after 1.5s")
	}
}
