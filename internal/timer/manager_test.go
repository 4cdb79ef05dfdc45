package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClearPreventsFire(t *testing.T) {
	m := New()
	var fired int32
	m.Set(Silence, 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.Clear(Silence)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("cleared timer must never fire")
	}
}

func TestResetSupersedesPreviousHandler(t *testing.T) {
	m := New()
	var firstFired, secondFired int32
	m.Set(DigitTimeout, 10*time.Millisecond, func() { atomic.AddInt32(&firstFired, 1) })
	m.Set(DigitTimeout, 30*time.Millisecond, func() { atomic.AddInt32(&secondFired, 1) })
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&firstFired) != 0 {
		t.Error("superseded handler must not fire")
	}
	if atomic.LoadInt32(&secondFired) != 1 {
		t.Error("latest handler should fire exactly once")
	}
}

func TestFiresWhenUncancelled(t *testing.T) {
	m := New()
	done := make(chan struct{})
	m.Set(NoResponseInfer, 10*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected timer to fire")
	}
}

func TestClearAllCancelsEverything(t *testing.T) {
	m := New()
	var fired int32
	m.Set(Silence, 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.Set(PendingTerminal, 10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.ClearAll()
	time.Sleep(40 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("ClearAll must cancel every timer")
	}
}
