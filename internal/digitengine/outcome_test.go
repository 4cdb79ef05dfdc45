package digitengine

import (
	"testing"
	"time"
)

func newTestExpectation() *Expectation {
	return &Expectation{
		Profile:       "pin",
		ValidatorKind: "none",
		MinDigits:     4,
		MaxDigits:     6,
		MaxRetries:    3,
	}
}

func TestRecordDigitsTooFast(t *testing.T) {
	exp := newTestExpectation()
	c := RecordDigits(exp, "1", RecordMeta{}, 199, time.Now())
	if c.Accepted || c.Reason != ReasonTooFast {
		t.Fatalf("expected too_fast, got accepted=%v reason=%q", c.Accepted, c.Reason)
	}
	if c.Retries != 1 {
		t.Errorf("expected retry count 1, got %d", c.Retries)
	}
}

func TestRecordDigitsAcceptedBoundaryGap(t *testing.T) {
	exp := newTestExpectation()
	// 201ms gap is past the 200ms boundary so too_fast should not apply;
	// a single digit is still incomplete against min=4.
	c := RecordDigits(exp, "1", RecordMeta{}, 201, time.Now())
	if c.Reason != ReasonIncomplete {
		t.Fatalf("expected incomplete (not too_fast), got %q", c.Reason)
	}
}

func TestRecordDigitsTooLong(t *testing.T) {
	exp := newTestExpectation()
	c := RecordDigits(exp, "1234567", RecordMeta{}, -1, time.Now())
	if c.Accepted || c.Reason != ReasonTooLong {
		t.Fatalf("expected too_long, got %+v", c)
	}
}

func TestRecordDigitsIncompleteNotRetryOnDTMF(t *testing.T) {
	exp := newTestExpectation()
	exp.Channel = ChannelDTMF
	c := RecordDigits(exp, "12", RecordMeta{}, -1, time.Now())
	if c.Reason != ReasonIncomplete {
		t.Fatalf("expected incomplete, got %+v", c)
	}
	if c.Retries != 0 {
		t.Errorf("incomplete over dtmf should not count as a retry, got %d", c.Retries)
	}
}

func TestRecordDigitsIncompleteCountsOnVoice(t *testing.T) {
	exp := newTestExpectation()
	exp.Channel = ChannelVoice
	c := RecordDigits(exp, "12", RecordMeta{}, -1, time.Now())
	if c.Retries != 1 {
		t.Errorf("incomplete over voice should count as a retry, got %d", c.Retries)
	}
}

func TestRecordDigitsSpamOverridesAcceptance(t *testing.T) {
	exp := newTestExpectation()
	exp.MaxDigits = 8
	exp.MinDigits = 4
	c := RecordDigits(exp, "11111111", RecordMeta{ASRConfidence: 0.99}, -1, time.Now())
	if c.Accepted || c.Reason != ReasonSpamPattern {
		t.Fatalf("expected spam_pattern override, got %+v", c)
	}
}

func TestRecordDigitsAscendingSpam(t *testing.T) {
	exp := newTestExpectation()
	exp.MaxDigits = 8
	c := RecordDigits(exp, "12345678", RecordMeta{ASRConfidence: 0.99}, -1, time.Now())
	if c.Accepted || c.Reason != ReasonSpamPattern {
		t.Fatalf("expected spam_pattern for ascending run, got %+v", c)
	}
}

func TestRecordDigitsAcceptedOnGoodInput(t *testing.T) {
	exp := newTestExpectation()
	c := RecordDigits(exp, "4829", RecordMeta{ASRConfidence: 0.95}, -1, time.Now())
	if !c.Accepted {
		t.Fatalf("expected acceptance, got %+v", c)
	}
	if exp.Buffer != "" {
		t.Errorf("buffer should be cleared after acceptance")
	}
}

func TestRecordDigitsFallbackOnRetryExhaustion(t *testing.T) {
	exp := newTestExpectation()
	exp.MaxRetries = 1
	exp.MaxDigits = 20 // avoid too_long while still invalid by length below min
	exp.Channel = ChannelVoice
	now := time.Now()
	RecordDigits(exp, "1", RecordMeta{}, -1, now)
	c := RecordDigits(exp, "1", RecordMeta{}, -1, now)
	if !c.Fallback {
		t.Fatalf("expected fallback=true after exceeding max retries, got %+v", c)
	}
}

func TestValidatorFailureRoutesReason(t *testing.T) {
	exp := newTestExpectation()
	exp.Profile = "card_number"
	exp.ValidatorKind = "luhn"
	exp.MinDigits = 16
	exp.MaxDigits = 16
	c := RecordDigits(exp, "4111111111111112", RecordMeta{}, -1, time.Now())
	if c.Accepted || c.Reason != ReasonInvalidLuhn {
		t.Fatalf("expected invalid_luhn, got %+v", c)
	}
}

func TestBreakerOpensOnErrorRate(t *testing.T) {
	b := NewBreaker()
	now := time.Now()
	// 8 samples, 3 errors = 0.375 error rate, above the 0.30 threshold.
	for i := 0; i < 5; i++ {
		b.RecordOutcome(true, now)
	}
	for i := 0; i < 3; i++ {
		b.RecordOutcome(false, now)
	}
	if !b.Open(now) {
		t.Fatal("expected breaker to be open after crossing the error-rate threshold")
	}
}

func TestBreakerStaysClosedBelowMinSamples(t *testing.T) {
	b := NewBreaker()
	now := time.Now()
	b.RecordOutcome(false, now)
	b.RecordOutcome(false, now)
	if b.Open(now) {
		t.Fatal("breaker should not open before reaching the minimum sample count")
	}
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	b := NewBreaker()
	now := time.Now()
	for i := 0; i < 5; i++ {
		b.RecordOutcome(true, now)
	}
	for i := 0; i < 3; i++ {
		b.RecordOutcome(false, now)
	}
	if !b.Open(now) {
		t.Fatal("expected breaker open")
	}
	later := now.Add(61 * time.Second)
	if b.Open(later) {
		t.Fatal("expected breaker to self-clear after cooldown")
	}
}

func TestPlanAdvanceAndDedup(t *testing.T) {
	p := &Plan{Steps: StepsFor(GroupBanking), State: PlanCollectStep}
	now := time.Now()
	if !p.AcceptStep("021000021", p.CurrentProfileID(), now) {
		t.Fatal("first acceptance should not be treated as duplicate")
	}
	if p.AcceptStep("021000021", p.CurrentProfileID(), now.Add(1*time.Second)) {
		t.Fatal("redelivery within the dedup window should be dropped")
	}
	p.Advance()
	if p.CurrentProfileID() != "account_number" {
		t.Fatalf("expected advance to account_number, got %q", p.CurrentProfileID())
	}
}

func TestResolveGroupTieLeavesNormalMode(t *testing.T) {
	if _, ok := ResolveGroup("", "I need your card number and your routing number"); ok {
		t.Fatal("expected tied keyword scores to leave mode normal")
	}
}

func TestResolveGroupBanking(t *testing.T) {
	g, ok := ResolveGroup("", "please provide your routing and checking account")
	if !ok || g != GroupBanking {
		t.Fatalf("expected banking group, got %q ok=%v", g, ok)
	}
}
