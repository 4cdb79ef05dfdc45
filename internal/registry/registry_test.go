package registry

import (
	"testing"
	"time"

	"github.com/voxorbit/callorbit/internal/profile"
)

func TestCreateIsIdempotent(t *testing.T) {
	r := New()
	profiles := profile.New()
	c1 := r.Create("call-1", profiles, nil, nil)
	c2 := r.Create("call-1", profiles, nil, nil)
	if c1 != c2 {
		t.Fatal("expected duplicate Create to return the same Call")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 active call, got %d", r.Len())
	}
}

func TestRemoveTearsDown(t *testing.T) {
	r := New()
	profiles := profile.New()
	r.Create("call-1", profiles, nil, nil)
	r.Remove("call-1")
	if _, ok := r.Get("call-1"); ok {
		t.Fatal("expected call to be gone after Remove")
	}
	if r.Len() != 0 {
		t.Fatalf("expected 0 active calls, got %d", r.Len())
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := New()
	r.Remove("never-created") // must not panic
}

func TestSharedBreakerAcrossCalls(t *testing.T) {
	r := New()
	profiles := profile.New()
	c1 := r.Create("call-1", profiles, nil, nil)
	c2 := r.Create("call-2", profiles, nil, nil)
	if c1.Digits == c2.Digits {
		t.Fatal("expected distinct per-call engines")
	}
	now := time.Now()
	for i := 0; i < 8; i++ {
		c1.Digits.RecordBreakerOutcome(false, now)
	}
	if !c2.Digits.BreakerOpen(now) {
		t.Fatal("expected failures recorded on call-1 to open the breaker seen by call-2")
	}
}
